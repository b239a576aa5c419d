package common

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Helper functions для всех callback handlers

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// ParseArg извлекает параметр после префикса.
// Например: ("bk_slot:09:00-10:00", "bk_slot:") -> "09:00-10:00"
func ParseArg(data, prefix string) (string, error) {
	arg, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return "", ErrInvalidFormat
	}
	return arg, nil
}

// ParseRequiredArg то же, но пустой параметр считается ошибкой формата
func ParseRequiredArg(data, prefix string) (string, error) {
	arg, err := ParseArg(data, prefix)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(arg) == "" {
		return "", ErrInvalidFormat
	}
	return arg, nil
}

// ParseIntArg извлекает числовой параметр, например номер страницы
func ParseIntArg(data, prefix string) (int, error) {
	arg, err := ParseRequiredArg(data, prefix)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return n, nil
}

// ParseFloatArg извлекает оценку вида "4.5"
func ParseFloatArg(data, prefix string) (float64, error) {
	arg, err := ParseRequiredArg(data, prefix)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return v, nil
}
