package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
)

const helpText = "📚 Commands:\n\n" +
	"/doctors - Browse doctors and book an appointment\n" +
	"/appointments - Your appointments and ratings\n" +
	"/login - Log in to the clinic\n" +
	"/logout - Log out\n" +
	"/cancel - Cancel the current input\n" +
	"/help - Show this help"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	session, err := h.sessions.Current(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get session", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}

	status := "You are not logged in. Use /login to book appointments."
	if session != nil {
		status = fmt.Sprintf("You are logged in as %s.", session.Email)
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hello, %s!\n\n"+
			"Welcome to Doctor Booking Bot.\n"+
			"%s\n\n%s",
		update.Message.From.FirstName,
		status,
		helpText,
	))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleLogin начинает диалог входа
func (h *Handlers) HandleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	session, err := h.sessions.Current(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get session", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}
	if session != nil {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ You are already logged in as %s.\n\nUse /logout to switch accounts.", session.Email))
		return
	}

	h.stateManager.ClearState(telegramID)
	h.stateManager.SetState(telegramID, state.StateLoginEmail)
	h.sendPrompt(ctx, b, chatID, telegramID, "🔑 Login\n\nEnter your email:\n\nUse /cancel to abort")
}

// HandleLogout завершает сессию и закрывает открытый экран
func (h *Handlers) HandleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.stateManager.ClearState(telegramID)
	h.screens.Close(telegramID)

	if err := h.sessions.Logout(ctx, telegramID); err != nil {
		h.logger.Error("Failed to logout", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, "👋 You have been logged out.")
}

// HandleDoctors открывает список врачей
func (h *Handlers) HandleDoctors(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	h.stateManager.ClearState(telegramID)
	if err := h.screens.OpenDoctors(ctx, target(telegramID, update.Message.Chat.ID)); err != nil {
		h.logger.Error("Failed to open doctors", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
	}
}

// HandleAppointments открывает записи пользователя
func (h *Handlers) HandleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	h.stateManager.ClearState(telegramID)
	if err := h.screens.OpenAppointments(ctx, target(telegramID, update.Message.Chat.ID)); err != nil {
		h.logger.Error("Failed to open appointments", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
	}
}

// HandleCancel обрабатывает команду /cancel - отмена текущего ввода
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Nothing to cancel.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.\n\nUse /help to see available commands.")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("HandleTextMessage called",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateNone:
		return
	case state.StateLoginEmail:
		h.handleLoginEmailStep(ctx, b, update)
	case state.StateLoginPassword:
		h.handleLoginPasswordStep(ctx, b, update)
	case state.StateBookingSymptoms, state.StateBookingHistory:
		h.handleBookingTextStep(ctx, b, update, currentState)
	case state.StateRatingComment:
		h.handleRatingCommentStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown state",
			zap.Int64("telegram_id", telegramID),
			zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}
