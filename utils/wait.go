package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrWaitTimeout is returned when a polled condition never became true.
var ErrWaitTimeout = errors.New("wait timeout")

// PollConfig holds the parameters for a bounded fixed-interval wait.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// Total returns the maximum time Until may block for.
func (p PollConfig) Total() time.Duration {
	return p.Interval * time.Duration(p.MaxAttempts)
}

// Until polls cond at a fixed interval until it reports true. A cond error
// aborts the wait immediately; exhausting the attempts returns ErrWaitTimeout.
func (p PollConfig) Until(conditionName string, cond func() (bool, error)) error {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		ok, err := cond()
		if err != nil {
			return fmt.Errorf("%s: %w", conditionName, err)
		}
		if ok {
			return nil
		}
		if attempt < p.MaxAttempts {
			time.Sleep(p.Interval)
		}
	}
	return fmt.Errorf("%s: condition not met after %d attempts: %w",
		conditionName, p.MaxAttempts, ErrWaitTimeout)
}
