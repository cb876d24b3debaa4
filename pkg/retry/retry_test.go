package retry

import (
	"context"
	"errors"
	"testing"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 2}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	p := Policy{
		Retries:   2,
		Retryable: func(err error) bool { return errors.Is(err, errTransient) },
	}
	err := Do(context.Background(), p, func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("Do() error = %v, want errTransient", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 attempt + 2 retries)", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	p := Policy{
		Retries:   2,
		Retryable: func(err error) bool { return errors.Is(err, errTransient) },
	}
	err := Do(context.Background(), p, func() error {
		calls++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("Do() error = %v, want errPermanent", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRecoversMidway(t *testing.T) {
	calls := 0
	p := Policy{
		Retries:   2,
		Retryable: func(error) bool { return true },
	}
	err := Do(context.Background(), p, func() error {
		calls++
		if calls < 2 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{Retries: 2}, func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
