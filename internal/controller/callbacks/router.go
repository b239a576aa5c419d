package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/appointments"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/doctors"
)

// ========================
// Main Callback Router
// ========================

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	switch {
	case data == common.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Doctors =====
	case data == common.DoctorsOpen:
		doctors.HandleOpenDoctors(ctx, b, callback, h)
	case data == common.DoctorsReload:
		doctors.HandleReload(ctx, b, callback, h)
	case data == common.DoctorsBack:
		doctors.HandleBack(ctx, b, callback, h)
	case strings.HasPrefix(data, common.DoctorsSpeciality):
		doctors.HandleSpeciality(ctx, b, callback, h)
	case strings.HasPrefix(data, common.DoctorsPage):
		doctors.HandlePage(ctx, b, callback, h)
	case strings.HasPrefix(data, common.DoctorView):
		doctors.HandleViewDoctor(ctx, b, callback, h)

	// ===== Booking =====
	case strings.HasPrefix(data, common.BookOpen):
		doctors.HandleBookOpen(ctx, b, callback, h)
	case strings.HasPrefix(data, common.BookDate):
		doctors.HandleDate(ctx, b, callback, h)
	case strings.HasPrefix(data, common.BookSlot):
		doctors.HandleSlot(ctx, b, callback, h)
	case data == common.BookSymptoms:
		doctors.HandleSymptoms(ctx, b, callback, h)
	case data == common.BookHistory:
		doctors.HandleHistory(ctx, b, callback, h)
	case data == common.BookSubmit:
		doctors.HandleSubmit(ctx, b, callback, h)
	case data == common.BookDismiss:
		doctors.HandleDismiss(ctx, b, callback, h)
	case data == common.BookRetry:
		doctors.HandleRetry(ctx, b, callback, h)

	// ===== Appointments and Rating =====
	case data == common.AppointmentsOpen:
		appointments.HandleOpen(ctx, b, callback, h)
	case data == common.AppointmentsReload:
		appointments.HandleReload(ctx, b, callback, h)
	case strings.HasPrefix(data, common.RateOpen):
		appointments.HandleRateOpen(ctx, b, callback, h)
	case strings.HasPrefix(data, common.RateStars):
		appointments.HandleStars(ctx, b, callback, h)
	case data == common.RateComment:
		appointments.HandleComment(ctx, b, callback, h)
	case data == common.RateSubmit:
		appointments.HandleSubmit(ctx, b, callback, h)

	// ===== Unknown Callback =====
	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Unknown command")
	}
}
