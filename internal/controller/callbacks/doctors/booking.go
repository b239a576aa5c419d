package doctors

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

// ========================
// Booking Form Handlers
// ========================

// HandleBookOpen открывает форму записи к врачу из карточки
func HandleBookOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	doctorID, err := common.ParseRequiredArg(callback.Data, common.BookOpen)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	if err := h.Screens.OpenBooking(ctx, callbacktypes.Target(callback, msg), doctorID); err != nil {
		h.Logger.Warn("Failed to open booking",
			zap.Int64("user_id", callback.From.ID),
			zap.String("doctor_id", doctorID),
			zap.Error(err))
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}

// HandleDate выбирает дату приёма
func HandleDate(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	arg, err := common.ParseRequiredArg(callback.Data, common.BookDate)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	date, err := time.Parse(model.DateLayout, arg)
	if err != nil {
		h.Fail(ctx, b, callback, common.ErrInvalidFormat)
		return
	}
	withBooking(ctx, b, callback, h, func(c *booking.Controller) error {
		return c.SelectDate(date)
	})
}

// HandleSlot выбирает время приёма
func HandleSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	slot, err := common.ParseRequiredArg(callback.Data, common.BookSlot)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	withBooking(ctx, b, callback, h, func(c *booking.Controller) error {
		return c.SelectTimeSlot(slot)
	})
}

// HandleSymptoms просит ввести симптомы
func HandleSymptoms(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	promptBooking(ctx, b, callback, h, state.StateBookingSymptoms, "📝 Describe your symptoms:")
}

// HandleHistory просит ввести историю болезни
func HandleHistory(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	promptBooking(ctx, b, callback, h, state.StateBookingHistory, "📋 Describe your prior medical history:")
}

// HandleSubmit отправляет запись
func HandleSubmit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withBooking(ctx, b, callback, h, func(c *booking.Controller) error {
		return c.Submit()
	})
}

// HandleDismiss убирает ошибку отправки
func HandleDismiss(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withBooking(ctx, b, callback, h, func(c *booking.Controller) error {
		c.DismissError()
		return nil
	})
}

// HandleRetry повторяет неудавшиеся загрузки формы
func HandleRetry(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withBooking(ctx, b, callback, h, func(c *booking.Controller) error {
		return c.Retry()
	})
}

func promptBooking(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, next state.UserState, text string) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}
	c, err := h.Screens.Booking(callback.From.ID, msg.ID)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	if c.Phase() == booking.PhaseSubmitting {
		h.Fail(ctx, b, callback, booking.ErrSubmitInFlight)
		return
	}
	h.Prompt(ctx, b, callback, msg, next, text)
}

func withBooking(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, fn func(*booking.Controller) error) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	c, err := h.Screens.Booking(callback.From.ID, msg.ID)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	if err := fn(c); err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}
