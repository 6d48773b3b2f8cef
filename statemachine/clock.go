package statemachine

import "time"

// Clock supplies the current time for undo-window checks. Injected so
// tests can travel in time without touching the system clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
