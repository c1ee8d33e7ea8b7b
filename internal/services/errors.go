package services

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"podcast-kb/internal/search"
)

// Result codes carried on error results.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeMethodNotFound = "METHOD_NOT_FOUND"
	CodeInternal       = "INTERNAL_ERROR"
)

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "Invalid arguments: " + strings.Join(parts, "; ")
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

func notFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Result is what every operation hands back to the transport. Exactly one of
// a payload or an error message is carried in Text. Not-found results carry
// Code without IsError.
type Result struct {
	Text    string
	IsError bool
	Code    string
}

func ok(text string) Result {
	return Result{Text: text}
}

func errorResult(err error) Result {
	var validation *ValidationError
	var missing *NotFoundError
	switch {
	case errors.As(err, &validation):
		return Result{Text: validation.Error(), IsError: true, Code: CodeValidation}
	case errors.As(err, &missing):
		return Result{Text: missing.Message, Code: CodeNotFound}
	case errors.Is(err, search.ErrInvalidPattern):
		return Result{Text: err.Error(), IsError: true, Code: CodeValidation}
	default:
		return Result{Text: "An unexpected error occurred", IsError: true, Code: CodeInternal}
	}
}
