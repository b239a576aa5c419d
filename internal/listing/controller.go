// Package listing держит список, отфильтрованный по селектору, и
// необязательный независимый список вариантов для самого селектора.
//
// Пустой успешный ответ и ошибка различаются и рисуются по-разному.
package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/resource"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrNotMounted   = errors.New("list is not mounted")
	ErrClosed       = errors.New("list is closed")
)

// View что показывать вместо списка или вместе с ним
type View string

const (
	ViewIdle         View = "idle"
	ViewAuthRequired View = "auth_required"
	ViewLoading      View = "loading"
	ViewError        View = "error"
	ViewEmpty        View = "empty"
	ViewItems        View = "items"
)

// Messages тексты состояний экрана
type Messages struct {
	Empty         string
	Failed        string
	OptionsFailed string
	AuthRequired  string
}

// Config параметры списка с селектором типа S и элементами типа T
type Config[S comparable, T any] struct {
	Name     string
	Fetch    resource.Fetcher[S, []T]
	Options  func(ctx context.Context) ([]string, error) // nil, если селектору не нужны варианты
	Initial  S
	Messages Messages

	RequireAuth bool
	Session     *model.Session
	Now         func() time.Time

	Logger   *zap.Logger
	OnChange func()
}

// Snapshot состояние для отрисовки
type Snapshot[S comparable, T any] struct {
	View     View
	Selector S
	Items    []T // при ошибке остаются последние полученные
	Loading  bool
	Message  string
	ErrKind  gateway.Kind

	Options        []string
	OptionsLoading bool
	OptionsError   string
}

// Controller список с фильтром
type Controller[S comparable, T any] struct {
	mu           sync.Mutex
	cfg          Config[S, T]
	list         *resource.Resource[S, []T]
	options      *resource.Resource[struct{}, []string]
	mounted      bool
	authRequired bool
	closed       bool
}

// New создаёт список в состоянии Idle
func New[S comparable, T any](cfg Config[S, T]) *Controller[S, T] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Name == "" {
		cfg.Name = "list"
	}
	cfg.Logger = cfg.Logger.With(zap.String("list", cfg.Name))

	c := &Controller[S, T]{cfg: cfg}
	c.list = resource.New[S, []T](cfg.Fetch,
		resource.WithName(cfg.Name),
		resource.WithLogger(cfg.Logger),
		resource.WithOnChange(c.notify),
	)
	if cfg.Options != nil {
		fetch := cfg.Options
		c.options = resource.New[struct{}, []string](
			func(ctx context.Context, _ struct{}) ([]string, error) { return fetch(ctx) },
			resource.WithName(cfg.Name+"_options"),
			resource.WithLogger(cfg.Logger),
			resource.WithOnChange(c.notify),
		)
	}
	return c
}

// Mount запускает загрузку списка по начальному селектору и вариантов селектора.
// Если список требует авторизации, а сессии нет, ничего не запрашивается.
func (c *Controller[S, T]) Mount() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	if c.cfg.RequireAuth && !c.cfg.Session.IsAuthenticated(c.cfg.Now()) {
		c.authRequired = true
		c.mu.Unlock()
		c.notify()
		return ErrAuthRequired
	}
	c.mu.Unlock()

	c.list.SetKey(c.cfg.Initial)
	if c.options != nil {
		c.options.SetKey(struct{}{})
	}
	return nil
}

// SelectFilter меняет селектор; тот же селектор не перезапрашивает список
func (c *Controller[S, T]) SelectFilter(selector S) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.list.SetKey(selector)
	return nil
}

// Reload перезапрашивает список по текущему селектору.
// Упавшие варианты селектора запрашиваются повторно.
func (c *Controller[S, T]) Reload() error {
	if err := c.guard(); err != nil {
		return err
	}
	c.list.Reload()
	if c.options != nil && c.options.State().Err != nil {
		c.options.Reload()
	}
	return nil
}

// Close отвязывает список; незавершённые вызовы игнорируются
func (c *Controller[S, T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.list.Close()
	if c.options != nil {
		c.options.Close()
	}
}

// Wait ждёт завершения всех запущенных вызовов
func (c *Controller[S, T]) Wait() {
	c.list.Wait()
	if c.options != nil {
		c.options.Wait()
	}
}

// Snapshot состояние для отрисовки
func (c *Controller[S, T]) Snapshot() Snapshot[S, T] {
	c.mu.Lock()
	authRequired := c.authRequired
	c.mu.Unlock()

	if authRequired {
		return Snapshot[S, T]{View: ViewAuthRequired, Message: c.cfg.Messages.AuthRequired}
	}

	st := c.list.State()
	snap := Snapshot[S, T]{
		Selector: st.Key,
		Loading:  st.Loading,
		ErrKind:  st.ErrKind,
	}
	if st.HasValue {
		snap.Items = append([]T(nil), st.Value...)
	}
	switch {
	case !st.HasKey:
		snap.View = ViewIdle
	case st.Err != nil:
		snap.View = ViewError
		snap.Message = c.cfg.Messages.Failed
	case st.Loading:
		snap.View = ViewLoading
	case len(st.Value) == 0:
		snap.View = ViewEmpty
		snap.Message = c.cfg.Messages.Empty
	default:
		snap.View = ViewItems
	}

	if c.options != nil {
		opt := c.options.State()
		snap.Options = append([]string(nil), opt.Value...)
		snap.OptionsLoading = opt.Loading
		if opt.Err != nil {
			snap.OptionsError = c.cfg.Messages.OptionsFailed
		}
	}
	return snap
}

func (c *Controller[S, T]) guard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return ErrClosed
	case c.authRequired:
		return ErrAuthRequired
	case !c.mounted:
		return ErrNotMounted
	}
	return nil
}

func (c *Controller[S, T]) notify() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}
