package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Вход в API клиники
	StateLoginEmail    UserState = "login_email"
	StateLoginPassword UserState = "login_password"

	// Свободный текст в открытой форме записи
	StateBookingSymptoms UserState = "booking_symptoms"
	StateBookingHistory  UserState = "booking_history"

	// Комментарий к оценке
	StateRatingComment UserState = "rating_comment"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State      UserState
	LoginEmail string // введённый email ждёт пароля
	PromptID   int    // сообщение с вопросом, на которое ждём ответ
}
