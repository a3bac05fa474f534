package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 99, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, result)
	assert.Equal(t, 3, calls)
}

func TestRetry_PersistentFailure(t *testing.T) {
	calls := 0
	_, err := Retry(2, func() (int, error) {
		calls++
		return 0, errors.New("fail " + string(rune('0'+calls)))
	})
	assert.EqualError(t, err, "fail 2")
	assert.Equal(t, 2, calls)
}

func TestRetry_MaxTriesZeroOrNegative(t *testing.T) {
	for _, n := range []int{0, -1} {
		calls := 0
		_, _ = Retry(n, func() (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		assert.Equal(t, 1, calls)
	}
}

func TestRetryWithContext_Delay(t *testing.T) {
	calls := 0
	start := time.Now()
	err := RetryErrWithContext(context.Background(), 3, 10*time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRetryWithContext_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithContext(ctx, 5, time.Hour, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryWithContext_FunctionReturnsContextError(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 5, 0, func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}
