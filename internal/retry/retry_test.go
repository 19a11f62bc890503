package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")
var errFatal = errors.New("fatal")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestDo_SuccessFirstTry(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, InitialDelay: time.Millisecond, Transient: isFlaky,
		OnRetry: func(int, time.Duration, error) { t.Fatal("unexpected retry") }}
	v, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsWithDoublingDelays(t *testing.T) {
	var delays []time.Duration
	var attempts []int
	calls := 0
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Transient:    isFlaky,
		OnRetry: func(a int, d time.Duration, err error) {
			attempts = append(attempts, a)
			delays = append(delays, d)
			assert.ErrorIs(t, err, errFlaky)
		},
	}
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 5, calls)
	assert.Equal(t, []int{1, 2, 3, 4}, attempts)
	assert.Equal(t, []time.Duration{
		time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond,
	}, delays)
}

func TestDo_RecoversAfterTransient(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, InitialDelay: time.Millisecond, Transient: isFlaky}
	v, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errFlaky
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestDo_FatalNotRetried(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 5, InitialDelay: time.Hour, Transient: isFlaky}
	start := time.Now()
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errFatal
	})
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_SingleAttempt(t *testing.T) {
	for _, max := range []int{1, 0, -3} {
		calls := 0
		p := Policy{MaxAttempts: max, InitialDelay: time.Hour, Transient: isFlaky}
		_, err := Do(context.Background(), p, func(context.Context) (int, error) {
			calls++
			return 0, errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 1, calls, "max=%d", max)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, InitialDelay: time.Hour, Transient: isFlaky,
		OnRetry: func(int, time.Duration, error) { cancel() }}
	_, err := Do(ctx, p, func(context.Context) (int, error) { return 0, errFlaky })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy(isFlaky)
	assert.Equal(t, 5, p.Attempts())
	assert.Equal(t, time.Second, p.InitialDelay)
}
