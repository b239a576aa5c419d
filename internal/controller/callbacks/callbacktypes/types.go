package callbacktypes

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/flow"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
)

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	Screens      *flow.Manager
	StateManager *state.Manager
	Logger       *zap.Logger
}

// Target экран, открытый на месте сообщения с кнопкой
func Target(callback *models.CallbackQuery, msg *models.Message) flow.Target {
	return flow.Target{UserID: callback.From.ID, ChatID: msg.Chat.ID, MessageID: msg.ID}
}

// Fail показывает ошибку во всплывающем окне
func (h *Handler) Fail(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, err error) {
	h.Logger.Debug("Callback rejected",
		zap.String("data", callback.Data),
		zap.Int64("user_id", callback.From.ID),
		zap.Error(err))
	common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
}

// Prompt просит ввести свободный текст и ждёт ответа в состоянии next
func (h *Handler) Prompt(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, msg *models.Message, next state.UserState, text string) {
	telegramID := callback.From.ID
	prev := h.StateManager.Get(telegramID).PromptID

	sent, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text + "\n\nUse /cancel to abort",
	})
	if err != nil {
		h.Logger.Error("Failed to send prompt", zap.Int64("user_id", telegramID), zap.Error(err))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Something went wrong")
		return
	}

	h.StateManager.ClearState(telegramID)
	h.StateManager.Update(telegramID, func(d *state.UserData) {
		d.State = next
		d.PromptID = sent.ID
	})
	if prev != 0 {
		b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: prev})
	}
	common.AnswerCallback(ctx, b, callback.ID, "")
}
