package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	var (
		errBroker = errors.New("broker unavailable")
		ok        = func() error { return nil }
		failing   = func() error { return errBroker }
	)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newBreaker(Config{
		Window:        10,
		FailureRatio:  0.3,
		OpenTimeout:   2 * time.Second,
		RecoveryCalls: 2,
	}, clock.now)

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, Closed, cb.State())

	// 3 failures out of a window of 10 reach the ratio
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Call(failing), errBroker)
	}
	require.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpen)
	require.False(t, called)

	clock.advance(3 * time.Second)
	require.ErrorIs(t, cb.Call(failing), errBroker)
	require.Equal(t, Open, cb.State(), "failed trial call reopens")

	clock.advance(3 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, Closed, cb.State())
}

func Test_circuitBreaker_Reset(t *testing.T) {
	t.Parallel()
	cb := New(Config{Window: 2, FailureRatio: 0.5, OpenTimeout: time.Hour, RecoveryCalls: 1})
	_ = cb.Call(func() error { return errors.New("boom") })
	require.Equal(t, Open, cb.State())

	cb.Reset()
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
}

func Test_circuitBreaker_HalfOpenSingleTrial(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := newBreaker(Config{Window: 1, FailureRatio: 1, OpenTimeout: time.Second, RecoveryCalls: 1}, clock.now)
	require.Error(t, cb.Call(func() error { return errors.New("down") }))
	require.Equal(t, Open, cb.State())
	clock.advance(2 * time.Second)

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Call(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	called := false
	require.ErrorIs(t, cb.Call(func() error { called = true; return nil }), ErrOpen)
	require.False(t, called)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
}
