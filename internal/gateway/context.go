package gateway

import "context"

type ctxKey int

const idempotencyKey ctxKey = iota

// WithIdempotencyKey помечает вызов ключом намерения пользователя
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

// IdempotencyKey достаёт ключ намерения, если он есть
func IdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey).(string)
	return key, ok && key != ""
}
