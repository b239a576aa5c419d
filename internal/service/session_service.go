package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

const MsgInvalidCredentials = "Invalid Credentials!"

// ErrInvalidCredentials сервер отклонил email или пароль
var ErrInvalidCredentials = errors.New(MsgInvalidCredentials)

// SessionStore хранилище сессий
type SessionStore interface {
	Upsert(ctx context.Context, s *model.Session) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.Session, error)
	Delete(ctx context.Context, telegramID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginForm поля формы входа
type LoginForm struct {
	Email    string `validate:"required,email_form"`
	Password string `validate:"required"`
}

// FormError форма входа не прошла локальную проверку, запрос не отправлялся
type FormError struct {
	Fields map[string]validation.Field
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, f := range e.Fields {
		if !f.IsValid {
			names = append(names, name+": "+f.Message)
		}
	}
	sort.Strings(names)
	return "invalid login form: " + strings.Join(names, "; ")
}

// ValidateLoginForm проверяет поля формы входа по отдельности
func ValidateLoginForm(form LoginForm) map[string]validation.Field {
	return map[string]validation.Field{
		"email":    validation.EmailField(form.Email),
		"password": validation.RequiredField(form.Password),
	}
}

type SessionService struct {
	repo   SessionStore
	auth   gateway.Authenticator
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewSessionService(repo SessionStore, auth gateway.Authenticator, ttl time.Duration, logger *zap.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		auth:   auth,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Login проверяет форму, входит в API клиники и сохраняет сессию
func (s *SessionService) Login(ctx context.Context, telegramID int64, form LoginForm) (*model.Session, error) {
	form.Email = strings.TrimSpace(form.Email)
	fields := ValidateLoginForm(form)
	if !validation.AllValid(fields) {
		return nil, &FormError{Fields: fields}
	}
	if err := validation.Struct(form); err != nil {
		return nil, fmt.Errorf("validate login form: %w", err)
	}

	creds, err := s.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			s.logger.Info("Login rejected", zap.Int64("telegram_id", telegramID))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now()
	session := &model.Session{
		TelegramID:  telegramID,
		Email:       creds.EmailID,
		FirstName:   creds.FirstName,
		AccessToken: creds.AccessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("User logged in",
		zap.Int64("telegram_id", telegramID),
		zap.String("email", session.Email),
	)

	return session, nil
}

// Current возвращает действующую сессию пользователя или nil
func (s *SessionService) Current(ctx context.Context, telegramID int64) (*model.Session, error) {
	session, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.IsAuthenticated(s.now()) {
		return nil, nil
	}
	return session, nil
}

// Logout отзывает токен и удаляет сессию. Отказ сервера не мешает выходу.
func (s *SessionService) Logout(ctx context.Context, telegramID int64) error {
	session, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := s.auth.Logout(ctx, session.AccessToken); err != nil {
		s.logger.Warn("Remote logout failed",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
	}

	if err := s.repo.Delete(ctx, telegramID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("User logged out", zap.Int64("telegram_id", telegramID))
	return nil
}

// PurgeExpired удаляет истёкшие сессии
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
