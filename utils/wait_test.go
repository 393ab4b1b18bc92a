package utils

import (
	"errors"
	"testing"
	"time"
)

func TestPollUntilSucceedsAfterAttempts(t *testing.T) {
	p := PollConfig{Interval: time.Millisecond, MaxAttempts: 5}

	calls := 0
	err := p.Until("test condition", func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestPollUntilTimesOut(t *testing.T) {
	p := PollConfig{Interval: time.Millisecond, MaxAttempts: 3}

	calls := 0
	err := p.Until("never true", func() (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestPollUntilAbortsOnError(t *testing.T) {
	p := PollConfig{Interval: time.Millisecond, MaxAttempts: 10}

	boom := errors.New("browser gone")
	calls := 0
	err := p.Until("failing condition", func() (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cond error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("cond should not be retried after an error, calls: %d", calls)
	}
}

func TestPollTotal(t *testing.T) {
	p := PollConfig{Interval: 500 * time.Millisecond, MaxAttempts: 20}
	if got := p.Total(); got != 10*time.Second {
		t.Errorf("Total: got %v, want 10s", got)
	}
}
