package resource

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
)

type reply struct {
	value string
	err   error
}

// gatedFetcher держит каждый вызов, пока тест не отпустит его ключ
type gatedFetcher struct {
	mu     sync.Mutex
	gates  map[string][]chan reply
	calls  []string
	issued chan string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: make(map[string][]chan reply), issued: make(chan string, 16)}
}

func (g *gatedFetcher) fetch(ctx context.Context, key string) (string, error) {
	ch := make(chan reply, 1)
	g.mu.Lock()
	g.gates[key] = append(g.gates[key], ch)
	g.calls = append(g.calls, key)
	g.mu.Unlock()
	g.issued <- key

	r := <-ch
	return r.value, r.err
}

// release отпускает самый ранний ожидающий вызов для ключа
func (g *gatedFetcher) release(t *testing.T, key string, r reply) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	pending := g.gates[key]
	require.NotEmpty(t, pending, "no pending call for %q", key)
	pending[0] <- r
	g.gates[key] = pending[1:]
}

func (g *gatedFetcher) awaitIssued(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		<-g.issued
	}
}

type observer struct {
	mu   sync.Mutex
	seen []string
}

func (o *observer) watch(r *Resource[string, string]) func() {
	return func() {
		st := r.State()
		if st.HasValue {
			o.mu.Lock()
			o.seen = append(o.seen, st.Value)
			o.mu.Unlock()
		}
	}
}

func TestSetKey_LastKeyWinsWhenStaleArrivesLate(t *testing.T) {
	g := newGatedFetcher()
	obs := &observer{}
	var r *Resource[string, string]
	r = New[string, string](g.fetch, WithOnChange(func() { obs.watch(r)() }))
	defer r.Close()

	require.True(t, r.SetKey("2024-06-01"))
	require.True(t, r.SetKey("2024-06-02"))
	g.awaitIssued(t, 2)

	g.release(t, "2024-06-02", reply{value: "slots-02"})
	g.release(t, "2024-06-01", reply{value: "slots-01"})
	r.Wait()

	st := r.State()
	assert.Equal(t, "2024-06-02", st.Key)
	assert.Equal(t, "slots-02", st.Value)
	assert.False(t, st.Loading)
	assert.NotContains(t, obs.seen, "slots-01")
}

func TestSetKey_LastKeyWinsWhenStaleArrivesFirst(t *testing.T) {
	g := newGatedFetcher()
	obs := &observer{}
	var r *Resource[string, string]
	r = New[string, string](g.fetch, WithOnChange(func() { obs.watch(r)() }))
	defer r.Close()

	for _, key := range []string{"a", "b", "c"} {
		r.SetKey(key)
		g.awaitIssued(t, 1)
	}

	g.release(t, "a", reply{value: "A"})
	g.release(t, "b", reply{value: "B"})

	st := r.State()
	assert.True(t, st.Loading)
	assert.False(t, st.HasValue)

	g.release(t, "c", reply{value: "C"})
	r.Wait()

	assert.Equal(t, []string{"C"}, obs.seen)
	assert.Equal(t, []string{"a", "b", "c"}, g.calls)
}

func TestSetKey_SameKeyIsNoop(t *testing.T) {
	calls := 0
	r := New[string, string](func(ctx context.Context, key string) (string, error) {
		calls++
		return key, nil
	})
	defer r.Close()

	require.True(t, r.SetKey("x"))
	r.Wait()
	assert.False(t, r.SetKey("x"))
	r.Wait()
	assert.Equal(t, 1, calls)
}

func TestSetKey_ClearsValueOfPreviousKey(t *testing.T) {
	g := newGatedFetcher()
	r := New[string, string](g.fetch)
	defer r.Close()

	r.SetKey("a")
	g.awaitIssued(t, 1)
	g.release(t, "a", reply{value: "A"})
	r.Wait()
	require.Equal(t, "A", r.State().Value)

	r.SetKey("b")
	st := r.State()
	assert.True(t, st.Loading)
	assert.False(t, st.HasValue)
	assert.Empty(t, st.Value)

	g.awaitIssued(t, 1)
	g.release(t, "b", reply{value: "B"})
	r.Wait()
}

func TestReload_FailureKeepsLastValue(t *testing.T) {
	g := newGatedFetcher()
	r := New[string, string](g.fetch)
	defer r.Close()

	r.SetKey("a")
	g.awaitIssued(t, 1)
	g.release(t, "a", reply{value: "A"})
	r.Wait()

	require.True(t, r.Reload())
	assert.True(t, r.State().Loading)
	g.awaitIssued(t, 1)
	g.release(t, "a", reply{err: &gateway.TransportError{Op: "fetch", Err: errors.New("timeout")}})
	r.Wait()

	st := r.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "A", st.Value)
	assert.True(t, st.HasValue)
	assert.Error(t, st.Err)
	assert.Equal(t, gateway.KindTransport, st.ErrKind)
}

func TestReload_SupersedesEarlierCallForSameKey(t *testing.T) {
	g := newGatedFetcher()
	r := New[string, string](g.fetch)
	defer r.Close()

	r.SetKey("a")
	g.awaitIssued(t, 1)
	r.Reload()
	g.awaitIssued(t, 1)

	g.release(t, "a", reply{value: "old"})
	assert.True(t, r.State().Loading)
	g.release(t, "a", reply{value: "fresh"})
	r.Wait()

	assert.Equal(t, "fresh", r.State().Value)
}

func TestReload_WithoutKey(t *testing.T) {
	r := New[string, string](func(ctx context.Context, key string) (string, error) { return key, nil })
	defer r.Close()
	assert.False(t, r.Reload())
}

func TestFailure_ClassifiesAuth(t *testing.T) {
	r := New[string, string](func(ctx context.Context, key string) (string, error) {
		return "", gateway.ErrUnauthorized
	})
	defer r.Close()

	r.SetKey("me")
	r.Wait()

	st := r.State()
	assert.Equal(t, gateway.KindAuthRequired, st.ErrKind)
	assert.False(t, st.HasValue)
}

func TestClose_DropsInFlightResult(t *testing.T) {
	g := newGatedFetcher()
	changes := 0
	r := New[string, string](g.fetch, WithOnChange(func() { changes++ }))

	r.SetKey("a")
	g.awaitIssued(t, 1)
	r.Close()
	g.release(t, "a", reply{value: "A"})
	r.Wait()

	assert.False(t, r.State().HasValue)
	assert.Equal(t, 1, changes)
	assert.False(t, r.SetKey("b"))
}

func TestClose_LetsFetchCompleteAndDropsResult(t *testing.T) {
	started := make(chan struct{})
	finish := make(chan struct{})
	var ctxErr error
	r := New[string, string](func(ctx context.Context, key string) (string, error) {
		close(started)
		<-finish
		ctxErr = ctx.Err()
		return "A", nil
	})

	r.SetKey("a")
	<-started
	r.Close()
	close(finish)
	r.Wait()

	assert.NoError(t, ctxErr)
	assert.False(t, r.State().HasValue)
	assert.True(t, r.State().Loading)
}
