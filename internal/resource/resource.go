// Package resource отслеживает одну зависимую загрузку: значение, флаг
// загрузки, ошибку и ключ, от которого загрузка зависит.
//
// Смена ключа перезапускает удалённый вызов. Результат вызова принимается,
// только если за время ожидания ключ не сменился и не был выпущен более
// новый запрос; иначе он молча отбрасывается. Вызов при этом не прерывается.
package resource

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
)

// Fetcher удалённый вызов, параметризованный ключом
type Fetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

// State снимок состояния ресурса для отрисовки
type State[K comparable, T any] struct {
	Key      K
	HasKey   bool
	Value    T
	HasValue bool
	Loading  bool
	Err      error
	ErrKind  gateway.Kind
}

// Resource зависимая загрузка с защитой от гонок
type Resource[K comparable, T any] struct {
	mu       sync.Mutex
	idle     *sync.Cond
	fetch    Fetcher[K, T]
	state    State[K, T]
	seq      uint64 // номер последнего выпущенного запроса
	inflight int
	closed   bool

	name     string
	logger   *zap.Logger
	onChange func()
}

// Option настройка ресурса
type Option func(*config)

type config struct {
	name     string
	logger   *zap.Logger
	onChange func()
}

// WithName имя ресурса для логов
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithLogger логгер для диагностики отказов
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithOnChange вызывается после каждого изменения состояния, вне блокировки
func WithOnChange(fn func()) Option {
	return func(c *config) { c.onChange = fn }
}

// New создаёт ресурс без ключа; загрузка начнётся при первом SetKey
func New[K comparable, T any](fetch Fetcher[K, T], opts ...Option) *Resource[K, T] {
	cfg := config{name: "resource", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	r := &Resource[K, T]{
		fetch:    fetch,
		name:     cfg.name,
		logger:   cfg.logger,
		onChange: cfg.onChange,
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// SetKey переключает ресурс на новый ключ.
// Если ключ равен текущему, ничего не происходит и возвращается false.
// Значение прошлого ключа сбрасывается сразу: оно не принадлежит новому ключу.
func (r *Resource[K, T]) SetKey(key K) bool {
	r.mu.Lock()
	if r.closed || (r.state.HasKey && r.state.Key == key) {
		r.mu.Unlock()
		return false
	}
	r.state = State[K, T]{Key: key, HasKey: true, Loading: true}
	r.issueLocked(key)
	r.mu.Unlock()

	r.notify()
	return true
}

// Reload повторяет загрузку для текущего ключа.
// Последнее значение сохраняется до прихода нового.
func (r *Resource[K, T]) Reload() bool {
	r.mu.Lock()
	if r.closed || !r.state.HasKey {
		r.mu.Unlock()
		return false
	}
	r.state.Loading = true
	r.state.Err = nil
	r.state.ErrKind = gateway.KindNone
	r.issueLocked(r.state.Key)
	r.mu.Unlock()

	r.notify()
	return true
}

// State возвращает копию текущего состояния
func (r *Resource[K, T]) State() State[K, T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close отвязывает ресурс. Незавершённые вызовы не прерываются,
// их результаты будут проигнорированы.
func (r *Resource[K, T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Wait блокируется, пока не завершатся все выпущенные вызовы
func (r *Resource[K, T]) Wait() {
	r.mu.Lock()
	for r.inflight > 0 {
		r.idle.Wait()
	}
	r.mu.Unlock()
}

func (r *Resource[K, T]) issueLocked(key K) {
	r.seq++
	r.inflight++
	go r.run(r.seq, key)
}

func (r *Resource[K, T]) run(seq uint64, key K) {
	value, err := r.fetch(context.Background(), key)
	r.settle(seq, key, value, err)
}

func (r *Resource[K, T]) settle(seq uint64, key K, value T, err error) {
	defer r.done()

	r.mu.Lock()
	if r.closed || seq != r.seq || !r.state.HasKey || r.state.Key != key {
		r.mu.Unlock()
		r.logger.Debug("Discarding stale result",
			zap.String("resource", r.name),
			zap.String("key", fmt.Sprint(key)),
			zap.Uint64("seq", seq))
		return
	}

	r.state.Loading = false
	if err != nil {
		r.state.Err = err
		r.state.ErrKind = gateway.Classify(err)
	} else {
		r.state.Value = value
		r.state.HasValue = true
		r.state.Err = nil
		r.state.ErrKind = gateway.KindNone
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("Fetch failed",
			zap.String("resource", r.name),
			zap.String("key", fmt.Sprint(key)),
			zap.Stringer("kind", gateway.Classify(err)),
			zap.Error(err))
	}
	r.notify()
}

// done снимает вызов с учёта уже после уведомления
func (r *Resource[K, T]) done() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()
	r.idle.Broadcast()
}

func (r *Resource[K, T]) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
