package admission

import (
	"context"
	"errors"
)

var (
	ErrCapacityExceeded = errors.New("server at capacity, try again shortly")
	ErrMemoryPressure   = errors.New("server under high load, try again shortly")
	ErrCircuitOpen      = errors.New("service temporarily unavailable")
	ErrTimeout          = errors.New("request timed out")
)

// Code maps an admission error to the stable code reported to callers.
// It returns "" for errors that did not originate here.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrMemoryPressure):
		return "HIGH_LOAD"
	case errors.Is(err, ErrCircuitOpen):
		return "CIRCUIT_OPEN"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	default:
		return ""
	}
}

// IsRejection reports whether err is one of the admission conditions.
func IsRejection(err error) bool {
	return Code(err) != ""
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
