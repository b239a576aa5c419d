package appointments

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/doctor_booking_bot/internal/rating"
)

// HandleOpen открывает записи пользователя на месте текущего экрана
func HandleOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	h.StateManager.ClearState(callback.From.ID)
	if err := h.Screens.OpenAppointments(ctx, callbacktypes.Target(callback, msg)); err != nil {
		h.Logger.Error("Failed to open appointments", zap.Int64("user_id", callback.From.ID), zap.Error(err))
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}

// HandleReload обновляет список записей
func HandleReload(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	list, err := h.Screens.Appointments(callback.From.ID, msg.ID)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	if err := list.Reload(); err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}

// ========================
// Rating Handlers
// ========================

// HandleRateOpen открывает форму оценки записи
func HandleRateOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	appointmentID, err := common.ParseRequiredArg(callback.Data, common.RateOpen)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	if err := h.Screens.OpenRating(ctx, callbacktypes.Target(callback, msg), appointmentID); err != nil {
		h.Logger.Warn("Failed to open rating",
			zap.Int64("user_id", callback.From.ID),
			zap.String("appointment_id", appointmentID),
			zap.Error(err))
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}

// HandleStars выставляет оценку
func HandleStars(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	value, err := common.ParseFloatArg(callback.Data, common.RateStars)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	withRating(ctx, b, callback, h, func(c *rating.Controller) error {
		return c.SetRating(value)
	})
}

// HandleComment просит ввести комментарий
func HandleComment(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}
	c, err := h.Screens.Rating(callback.From.ID, msg.ID)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	switch snap := c.Snapshot(); {
	case snap.Submitted:
		h.Fail(ctx, b, callback, rating.ErrAlreadySubmitted)
		return
	case snap.Submitting:
		h.Fail(ctx, b, callback, rating.ErrSubmitInFlight)
		return
	}
	h.Prompt(ctx, b, callback, msg, state.StateRatingComment, "💬 Write a comment for the doctor:")
}

// HandleSubmit отправляет оценку
func HandleSubmit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withRating(ctx, b, callback, h, func(c *rating.Controller) error {
		return c.Submit()
	})
}

func withRating(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, fn func(*rating.Controller) error) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	c, err := h.Screens.Rating(callback.From.ID, msg.ID)
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
