package chrono

import (
	"context"
	"time"
)

// TimeAPI is what anything that depends on the current time should use.
type TimeAPI interface {
	Now() time.Time
}

// SleepAPI waits for a duration, returning early with the context's error
// when it is cancelled.
type SleepAPI interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// StandardTime is the wall-clock implementation of TimeAPI.
type StandardTime struct{}

func (StandardTime) Now() time.Time {
	return time.Now()
}

// StandardSleep is the wall-clock implementation of SleepAPI.
type StandardSleep struct{}

func (StandardSleep) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
