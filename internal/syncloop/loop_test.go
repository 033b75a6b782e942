package syncloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mantle/internal/library"
)

type fakeSource struct {
	mu    sync.Mutex
	token string
	err   error
	block bool
	calls int
}

func (f *fakeSource) GetChangeToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	f.calls++
	token, err, block := f.token, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return token, err
}

func (f *fakeSource) set(token string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.err = token, err
}

func TestTick_SuspendedDefersRefresh(t *testing.T) {
	src := &fakeSource{token: "B"}
	loop := New(src, Options{InitialToken: "A"})
	loop.SetSuspended(true)

	assert.False(t, loop.Tick(context.Background()))
	assert.Equal(t, "A", loop.State().LastKnownToken)
	assert.Equal(t, Suspended, loop.Phase())

	loop.SetSuspended(false)
	assert.True(t, loop.Tick(context.Background()))
	assert.Equal(t, "B", loop.State().LastKnownToken)
	assert.Equal(t, Idle, loop.Phase())
}

func TestTick_UnchangedTokenDoesNotRefresh(t *testing.T) {
	src := &fakeSource{token: "A"}
	loop := New(src, Options{InitialToken: "A"})

	assert.False(t, loop.Tick(context.Background()))
	src.set("B", nil)
	assert.True(t, loop.Tick(context.Background()))
	assert.False(t, loop.Tick(context.Background()), "a change is reported once")
}

func TestTick_UnprimedLoopReportsFirstToken(t *testing.T) {
	src := &fakeSource{token: "T1"}
	loop := New(src, Options{})

	assert.True(t, loop.Tick(context.Background()))
	assert.Equal(t, "T1", loop.State().LastKnownToken)
	assert.False(t, loop.Tick(context.Background()))

	src.set("T2", nil)
	assert.True(t, loop.Tick(context.Background()))
}

func TestTick_UnprimedSuspendedLoopKeepsChangePending(t *testing.T) {
	src := &fakeSource{token: "B"}
	loop := New(src, Options{})
	loop.SetSuspended(true)

	assert.False(t, loop.Tick(context.Background()))
	assert.Empty(t, loop.State().LastKnownToken, "a suspended tick must not adopt the token")

	loop.SetSuspended(false)
	assert.True(t, loop.Tick(context.Background()))
	assert.Equal(t, "B", loop.State().LastKnownToken)
}

func TestTick_ErrorIsNoChange(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	loop := New(src, Options{InitialToken: "A"})

	assert.False(t, loop.Tick(context.Background()))
	assert.False(t, loop.Tick(context.Background()))
	assert.Equal(t, 2, loop.Failures())
	assert.Error(t, loop.LastError())
	assert.Equal(t, "A", loop.State().LastKnownToken)

	src.set("B", nil)
	assert.True(t, loop.Tick(context.Background()))
	assert.Equal(t, 0, loop.Failures())
	assert.NoError(t, loop.LastError())
}

func TestTick_TimeoutIsBoundedAndFailsOpen(t *testing.T) {
	src := &fakeSource{block: true}
	loop := New(src, Options{InitialToken: "A", Timeout: 20 * time.Millisecond})

	start := time.Now()
	assert.False(t, loop.Tick(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, loop.LastError(), library.ErrTimeout)
	assert.Equal(t, 1, loop.Failures())
}

func TestBeginRenderResetsSuspension(t *testing.T) {
	src := &fakeSource{token: "B"}
	loop := New(src, Options{InitialToken: "A"})

	loop.OpenDialog()
	assert.Equal(t, Suspended, loop.Phase())
	loop.BeginRender()
	assert.Equal(t, Idle, loop.Phase())
	assert.True(t, loop.Tick(context.Background()))

	loop.OpenDialog()
	loop.CloseDialog()
	assert.Equal(t, Idle, loop.Phase())
}

func TestPrime(t *testing.T) {
	src := &fakeSource{token: "P"}
	loop := New(src, Options{})
	require.NoError(t, loop.Prime(context.Background()))
	assert.Equal(t, "P", loop.State().LastKnownToken)

	src.set("", errors.New("down"))
	assert.Error(t, loop.Prime(context.Background()))
	assert.Equal(t, "P", loop.State().LastKnownToken)
}

func TestTick_ConcurrentSuspendToggles(t *testing.T) {
	src := &fakeSource{token: "A"}
	loop := New(src, Options{InitialToken: "A"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); loop.Tick(context.Background()) }()
		go func(i int) { defer wg.Done(); loop.SetSuspended(i%2 == 0) }(i)
	}
	wg.Wait()
	assert.Equal(t, "A", loop.State().LastKnownToken)
}
