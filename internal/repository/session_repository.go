package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/repository/base"
)

// SessionRepository сессии авторизации пользователей Telegram в API клиники
type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(db base.DB) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(db)}
}

// Upsert сохраняет сессию; повторный вход перезаписывает прежнюю
func (r *SessionRepository) Upsert(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (telegram_id, email, first_name, access_token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    access_token = EXCLUDED.access_token,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query,
		s.TelegramID,
		s.Email,
		s.FirstName,
		s.AccessToken,
		s.ExpiresAt,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// GetByTelegramID получает сессию пользователя, nil если её нет
func (r *SessionRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Session, error) {
	query := `
		SELECT telegram_id, email, first_name, access_token, created_at, expires_at
		FROM sessions
		WHERE telegram_id = $1
	`

	var s model.Session
	err := r.QueryRow(ctx, query, telegramID).Scan(
		&s.TelegramID,
		&s.Email,
		&s.FirstName,
		&s.AccessToken,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by telegram id: %w", err)
	}

	return &s, nil
}

// Delete удаляет сессию пользователя
func (r *SessionRepository) Delete(ctx context.Context, telegramID int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM sessions WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired удаляет истёкшие сессии и возвращает их количество
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.ExecAffected(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}
