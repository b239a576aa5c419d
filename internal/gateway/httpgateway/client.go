// Package httpgateway реализует gateway.Gateway поверх REST API клиники.
package httpgateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

const (
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	userAgent            = "doctor-booking-bot/1.0"
)

// Config параметры клиента
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client REST клиент API клиники.
// Без сессии доступны только публичные вызовы; WithSession возвращает копию с токеном.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger

	token string
	email string
}

var (
	_ gateway.Gateway       = (*Client)(nil)
	_ gateway.Authenticator = (*Client)(nil)
)

// New создаёт клиент
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("httpgateway: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("httpgateway: parse base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// WithSession возвращает копию клиента, действующую от имени пользователя сессии
func (c *Client) WithSession(s *model.Session) *Client {
	cp := *c
	cp.token, cp.email = "", ""
	if s != nil {
		cp.token = s.AccessToken
		cp.email = s.Email
	}
	return &cp
}

// Login обменивает email и пароль на токен доступа.
// Любой отказ 4xx означает неверные учётные данные.
func (c *Client) Login(ctx context.Context, email, password string) (*gateway.Credentials, error) {
	data, err := c.invoke(ctx, request{
		op:        "login",
		method:    http.MethodPost,
		path:      "/auth/login",
		basicUser: email,
		basicPass: password,
	})
	if err != nil {
		var te *gateway.TransportError
		if errors.Is(err, gateway.ErrUnauthorized) || errors.Is(err, gateway.ErrNotFound) ||
			(errors.As(err, &te) && te.Status >= 400 && te.Status < 500) {
			return nil, fmt.Errorf("login: %w", gateway.ErrUnauthorized)
		}
		return nil, err
	}
	var creds gateway.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, decodeError("login", err)
	}
	if creds.AccessToken == "" {
		return nil, &gateway.TransportError{Op: "login", Err: errors.New("empty access token")}
	}
	if creds.EmailID == "" {
		creds.EmailID = email
	}
	return &creds, nil
}

// Logout отзывает токен на сервере
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.invoke(ctx, request{
		op:     "logout",
		method: http.MethodPost,
		path:   "/auth/logout",
		token:  accessToken,
	})
	return err
}

// ListDoctors список врачей, пустая специальность означает всех
func (c *Client) ListDoctors(ctx context.Context, filter gateway.DoctorFilter) ([]model.Doctor, error) {
	q := url.Values{}
	if filter.Speciality != "" {
		q.Set("speciality", filter.Speciality)
	}
	var out []model.Doctor
	if err := c.get(ctx, "list doctors", "/doctors", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSpecialities варианты специальностей
func (c *Client) ListSpecialities(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "list specialities", "/doctors/speciality", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailableSlots свободные слоты врача на дату YYYY-MM-DD
func (c *Client) ListAvailableSlots(ctx context.Context, doctorID, date string) (*model.SlotList, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, errors.New("httpgateway: doctor id required")
	}
	q := url.Values{}
	q.Set("date", date)
	var out model.SlotList
	path := "/doctors/" + url.PathEscape(doctorID) + "/timeSlots"
	if err := c.get(ctx, "list available slots", path, q, &out); err != nil {
		return nil, err
	}
	if out.DoctorID == "" {
		out.DoctorID = doctorID
	}
	if out.AvailableDate == "" {
		out.AvailableDate = date
	}
	return &out, nil
}

// GetCurrentUser профиль пользователя сессии
func (c *Client) GetCurrentUser(ctx context.Context) (*model.User, error) {
	if err := c.requireSession("get current user"); err != nil {
		return nil, err
	}
	var out model.User
	if err := c.get(ctx, "get current user", "/users/"+url.PathEscape(c.email), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserAppointments записи пользователя сессии
func (c *Client) ListUserAppointments(ctx context.Context) ([]model.Appointment, error) {
	if err := c.requireSession("list user appointments"); err != nil {
		return nil, err
	}
	var out []model.Appointment
	if err := c.get(ctx, "list user appointments", "/users/"+url.PathEscape(c.email)+"/appointments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitBooking отправляет запись. Конфликт слота (409 или accepted=false)
// возвращается как accepted=false без ошибки.
func (c *Client) SubmitBooking(ctx context.Context, draft model.AppointmentDraft) (bool, error) {
	if err := c.requireSession("submit booking"); err != nil {
		return false, err
	}
	body, err := json.Marshal(draft)
	if err != nil {
		return false, fmt.Errorf("httpgateway: marshal booking: %w", err)
	}
	data, err := c.invoke(ctx, request{
		op:     "submit booking",
		method: http.MethodPost,
		path:   "/appointments",
		body:   body,
		token:  c.token,
	})
	if err != nil {
		var te *gateway.TransportError
		if errors.As(err, &te) && te.Status == http.StatusConflict {
			return false, nil
		}
		return false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}
	var resp struct {
		Accepted *bool `json:"accepted"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		// 2xx без разборчивого тела считаем подтверждением
		c.logger.Warn("Unparseable booking response, treating as accepted",
			zap.String("doctor_id", draft.DoctorID),
			zap.String("date", draft.AppointmentDate),
			zap.Int("body_bytes", len(data)),
			zap.Error(err))
		return true, nil
	}
	if resp.Accepted != nil && !*resp.Accepted {
		return false, nil
	}
	return true, nil
}

// SubmitRating отправляет оценку приёма
func (c *Client) SubmitRating(ctx context.Context, rating model.RatingSubmission) error {
	if err := c.requireSession("submit rating"); err != nil {
		return err
	}
	body, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("httpgateway: marshal rating: %w", err)
	}
	_, err = c.invoke(ctx, request{
		op:     "submit rating",
		method: http.MethodPost,
		path:   "/ratings",
		body:   body,
		token:  c.token,
	})
	return err
}

type request struct {
	op        string
	method    string
	path      string
	query     url.Values
	body      []byte
	token     string
	basicUser string
	basicPass string
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	data, err := c.invoke(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   path,
		query:  query,
		token:  c.token,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

func (c *Client) requireSession(op string) error {
	if c.token == "" || c.email == "" {
		return fmt.Errorf("%s: %w", op, gateway.ErrUnauthorized)
	}
	return nil
}

// invoke выполняет запрос. GET повторяется при сетевых сбоях, 429 и 5xx;
// POST не повторяется, чтобы не продублировать намерение пользователя.
func (c *Client) invoke(ctx context.Context, r request) ([]byte, error) {
	fullURL := c.buildURL(r.path, r.query)
	retries := 0
	if r.method == http.MethodGet {
		retries = c.maxRetries
	}
	idemKey, hasIdemKey := gateway.IdempotencyKey(ctx)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		var bodyReader io.Reader
		if r.body != nil {
			bodyReader = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("httpgateway: build request: %w", err)
		}
		requestID := uuid.NewString()
		req.Header.Set(headerRequestID, requestID)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if r.body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		switch {
		case r.basicUser != "":
			req.SetBasicAuth(r.basicUser, r.basicPass)
		case r.token != "":
			req.Header.Set("Authorization", "Bearer "+r.token)
		}
		if hasIdemKey && r.method != http.MethodGet {
			req.Header.Set(headerIdempotencyKey, idemKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &gateway.TransportError{Op: r.op, Err: ctx.Err()}
			}
			lastErr = &gateway.TransportError{Op: r.op, Err: err}
			if attempt == retries || !shouldRetry(0, err) {
				return nil, lastErr
			}
			c.logRetry(r, requestID, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, &gateway.TransportError{Op: r.op, Err: sleepErr}
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &gateway.TransportError{Op: r.op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", readErr)}
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		apiErr := decodeAPIError(r.op, resp.StatusCode, data)
		if attempt < retries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(r, requestID, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, &gateway.TransportError{Op: r.op, Err: sleepErr}
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &gateway.TransportError{Op: r.op, Err: errors.New("request failed without response")}
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(r request, requestID string, attempt, status int, err error) {
	c.logger.Warn("Retrying API request",
		zap.String("op", r.op),
		zap.String("path", r.path),
		zap.String("request_id", requestID),
		zap.Int("attempt", attempt+1),
		zap.Int("status", status),
		zap.Error(err))
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeAPIError сводит ответ не-2xx к таксономии отказов gateway
func decodeAPIError(op string, status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, gateway.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, gateway.ErrNotFound)
	}

	msg := strings.TrimSpace(string(body))
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Error != "":
			msg = parsed.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &gateway.TransportError{Op: op, Status: status, Err: errors.New(msg)}
}

func decodeError(op string, err error) error {
	return &gateway.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
}
