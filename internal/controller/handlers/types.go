package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/flow"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/service"
)

// Sessions вход, выход и текущая сессия пользователя
type Sessions interface {
	Login(ctx context.Context, telegramID int64, form service.LoginForm) (*model.Session, error)
	Current(ctx context.Context, telegramID int64) (*model.Session, error)
	Logout(ctx context.Context, telegramID int64) error
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	sessions     Sessions
	screens      *flow.Manager
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	sessions Sessions,
	screens *flow.Manager,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		sessions:     sessions,
		screens:      screens,
		stateManager: stateManager,
		logger:       logger,
	}
}
