package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized сервер отклонил токен или учётные данные
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound запрошенный ресурс не существует
	ErrNotFound = errors.New("not found")
)

// TransportError сетевой сбой или неожиданный ответ сервера
type TransportError struct {
	Op     string
	Status int // 0 если ответа не было
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind класс отказа, к которому привязывается UI
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindAuthRequired
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindAuthRequired:
		return "auth_required"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Classify сводит произвольную ошибку вызова к Kind.
// Всё, что не распознано, считается транспортным сбоем (его можно повторить).
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnauthorized):
		return KindAuthRequired
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindTransport
	}
}
