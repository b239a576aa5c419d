package model

import "time"

// Session сессия авторизации пользователя Telegram в API клиники
type Session struct {
	TelegramID  int64     `json:"telegram_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsAuthenticated проверяет, что сессия есть и не истекла
func (s *Session) IsAuthenticated(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return now.Before(s.ExpiresAt)
}
