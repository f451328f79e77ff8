package intent

import (
	"fmt"
	"time"
)

// ClockError reports a wall clock that cannot produce a valid timestamp.
// It is an internal failure, never the client's fault.
type ClockError struct {
	Time time.Time
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("failed to get current timestamp: clock reports %s, before the unix epoch", e.Time.UTC().Format(time.RFC3339))
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

func (SystemClock) NowMillis() (uint64, error) {
	return millisSinceEpoch(time.Now())
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) NowMillis() (uint64, error) {
	return millisSinceEpoch(time.Time(c))
}

func millisSinceEpoch(t time.Time) (uint64, error) {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0, &ClockError{Time: t}
	}
	return uint64(ms), nil
}
