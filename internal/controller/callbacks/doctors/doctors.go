package doctors

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/flow"
)

// ========================
// Doctors List Handlers
// ========================

// HandleOpenDoctors открывает список врачей на месте текущего экрана
func HandleOpenDoctors(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	h.StateManager.ClearState(callback.From.ID)
	if err := h.Screens.OpenDoctors(ctx, callbacktypes.Target(callback, msg)); err != nil {
		h.Logger.Error("Failed to open doctors", zap.Int64("user_id", callback.From.ID), zap.Error(err))
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}

// HandleReload повторяет загрузку списка и специальностей
func HandleReload(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withScreen(ctx, b, callback, h, func(s *flow.DoctorsScreen) error {
		return s.List().Reload()
	})
}

// HandleSpeciality фильтрует список по специальности, пустая означает всех
func HandleSpeciality(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	speciality, err := common.ParseArg(callback.Data, common.DoctorsSpeciality)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	withScreen(ctx, b, callback, h, func(s *flow.DoctorsScreen) error {
		return s.SelectSpeciality(speciality)
	})
}

// HandlePage переключает страницу списка
func HandlePage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	page, err := common.ParseIntArg(callback.Data, common.DoctorsPage)
	if err != nil || page < 0 {
		h.Fail(ctx, b, callback, common.ErrInvalidFormat)
		return
	}
	withScreen(ctx, b, callback, h, func(s *flow.DoctorsScreen) error {
		s.SetPage(page)
		return nil
	})
}

// HandleViewDoctor показывает карточку врача
func HandleViewDoctor(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	doctorID, err := common.ParseRequiredArg(callback.Data, common.DoctorView)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	withScreen(ctx, b, callback, h, func(s *flow.DoctorsScreen) error {
		s.ShowDoctor(doctorID)
		return nil
	})
}

// HandleBack возвращает из карточки к списку
func HandleBack(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withScreen(ctx, b, callback, h, func(s *flow.DoctorsScreen) error {
		s.Back()
		return nil
	})
}

func withScreen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, fn func(*flow.DoctorsScreen) error) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.Fail(ctx, b, callback, common.ErrNoMessage)
		return
	}

	s, err := h.Screens.Doctors(callback.From.ID, msg.ID)
	if err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	if err := fn(s); err != nil {
		h.Fail(ctx, b, callback, err)
		return
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}
