package types

import "time"

// Logger is the logging abstraction used throughout the relay. It is a thin
// subset of *slog.Logger; the cmd entrypoint provides an adapter because
// slog's With returns a concrete type, not this interface.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
