package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	ctx := context.Background()
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	// Success on first try
	calls := 0
	if err := Retry(ctx, p, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("err=%v calls=%d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	plain := errors.New("fatal")
	if err := Retry(ctx, p, func() error { calls++; return plain }); err != plain || calls != 1 {
		t.Errorf("err=%v calls=%d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err := Retry(ctx, p, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errTransient}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err=%v calls=%d", err, calls)
	}

	// Exhausted attempts return the last error
	calls = 0
	err = Retry(ctx, p, func() error { calls++; return &RetryableError{Err: errTransient} })
	if !errors.Is(err, errTransient) || calls != 3 {
		t.Errorf("err=%v calls=%d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Policy{Attempts: 3, Delay: time.Hour}, func() error {
		return &RetryableError{Err: errTransient}
	})
	if err != context.Canceled {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}
