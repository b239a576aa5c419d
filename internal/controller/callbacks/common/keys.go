package common

// Форматы callback data. Префиксы с ":" несут параметр после двоеточия.
const (
	Noop = "noop"

	// Врачи
	DoctorsOpen       = "docs_open"
	DoctorsReload     = "docs_reload"
	DoctorsBack       = "docs_back"
	DoctorsSpeciality = "docs_spec:" // docs_spec:CARDIOLOGIST, пусто = все
	DoctorsPage       = "docs_page:" // docs_page:1
	DoctorView        = "doc:"       // doc:<doctor_id>

	// Запись
	BookOpen     = "book:"    // book:<doctor_id>
	BookDate     = "bk_date:" // bk_date:2006-01-02
	BookSlot     = "bk_slot:" // bk_slot:09:00-10:00, всё после первого двоеточия
	BookSymptoms = "bk_symptoms"
	BookHistory  = "bk_history"
	BookSubmit   = "bk_submit"
	BookDismiss  = "bk_dismiss"
	BookRetry    = "bk_retry"

	// Записи пользователя
	AppointmentsOpen   = "appts_open"
	AppointmentsReload = "appts_reload"

	// Оценка
	RateOpen    = "rate:"     // rate:<appointment_id>
	RateStars   = "rt_stars:" // rt_stars:4.5
	RateComment = "rt_comment"
	RateSubmit  = "rt_submit"
)

// DoctorsPageSize врачей на одной странице списка
const DoctorsPageSize = 8

// BookingDays сколько дней вперёд предлагать для записи
const BookingDays = 7

// MaxFreeTextLength предел для симптомов, истории и комментария
const MaxFreeTextLength = 500
