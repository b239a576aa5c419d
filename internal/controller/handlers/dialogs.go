package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/doctor_booking_bot/internal/service"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

// handleLoginEmailStep обрабатывает ввод email
func (h *Handlers) handleLoginEmailStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	email := strings.TrimSpace(update.Message.Text)

	if field := validation.EmailField(email); !field.IsValid {
		h.sendError(ctx, b, chatID, "⚠️ "+field.Message+"\n\nTry again:")
		return
	}

	prompt := h.stateManager.Get(telegramID).PromptID
	h.stateManager.Update(telegramID, func(d *state.UserData) {
		d.State = state.StateLoginPassword
		d.LoginEmail = email
	})
	if prompt != 0 {
		h.deleteMessage(ctx, b, chatID, prompt)
	}

	h.sendPrompt(ctx, b, chatID, telegramID, fmt.Sprintf("✅ Email: %s\n\nEnter your password:\n\nUse /cancel to abort", email))
}

// handleLoginPasswordStep обрабатывает ввод пароля и выполняет вход
func (h *Handlers) handleLoginPasswordStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	data := h.stateManager.Get(telegramID)

	// пароль не остаётся в истории чата
	h.deleteMessage(ctx, b, chatID, update.Message.ID)

	session, err := h.sessions.Login(ctx, telegramID, service.LoginForm{
		Email:    data.LoginEmail,
		Password: update.Message.Text,
	})
	if err != nil {
		var formErr *service.FormError
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.As(err, &formErr):
			h.stateManager.ClearState(telegramID)
			h.stateManager.SetState(telegramID, state.StateLoginEmail)
			h.sendError(ctx, b, chatID, common.ErrorMessage(err)+"\n\nEnter your email:")
		default:
			h.logger.Error("Login failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
			h.stateManager.ClearState(telegramID)
			h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		}
		return
	}

	h.stateManager.ClearState(telegramID)
	if data.PromptID != 0 {
		h.deleteMessage(ctx, b, chatID, data.PromptID)
	}

	name := session.FirstName
	if name == "" {
		name = session.Email
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Welcome, %s! You are logged in.\n\n/doctors - book an appointment\n/appointments - your appointments", name))
}

// handleBookingTextStep сохраняет симптомы или историю болезни в открытую форму записи
func (h *Handlers) handleBookingTextStep(ctx context.Context, b *bot.Bot, update *models.Update, step state.UserState) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if utf8.RuneCountInString(text) > common.MaxFreeTextLength {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Too long. Maximum %d characters.\n\nTry again:", common.MaxFreeTextLength))
		return
	}

	data := h.stateManager.Get(telegramID)
	h.stateManager.ClearState(telegramID)

	ctrl, err := h.screens.Booking(telegramID, 0)
	if err != nil {
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}

	if step == state.StateBookingSymptoms {
		ctrl.SetSymptoms(text)
	} else {
		ctrl.SetPriorMedicalHistory(text)
	}

	if data.PromptID != 0 {
		h.deleteMessage(ctx, b, chatID, data.PromptID)
	}
	h.deleteMessage(ctx, b, chatID, update.Message.ID)
}

// handleRatingCommentStep сохраняет комментарий в открытую форму оценки
func (h *Handlers) handleRatingCommentStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if utf8.RuneCountInString(text) > common.MaxFreeTextLength {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Too long. Maximum %d characters.\n\nTry again:", common.MaxFreeTextLength))
		return
	}

	data := h.stateManager.Get(telegramID)
	h.stateManager.ClearState(telegramID)

	ctrl, err := h.screens.Rating(telegramID, 0)
	if err != nil {
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}
	if err := ctrl.SetComment(text); err != nil {
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}

	if data.PromptID != 0 {
		h.deleteMessage(ctx, b, chatID, data.PromptID)
	}
	h.deleteMessage(ctx, b, chatID, update.Message.ID)
}
