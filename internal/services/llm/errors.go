package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind partitions call failures into the retry taxonomy. Transient and
// Timeout failures are retried; the rest surface immediately.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindInvalidInput
	KindProviderFault
	KindTimeout
	KindSchemaFault
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindInvalidInput:
		return "invalid_input"
	case KindProviderFault:
		return "provider_fault"
	case KindTimeout:
		return "timeout"
	case KindSchemaFault:
		return "schema_fault"
	default:
		return "unknown"
	}
}

// CallError wraps a provider failure with its classified kind.
type CallError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewCallError classifies err and wraps it. Already-classified errors keep
// their kind.
func NewCallError(op string, err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return &CallError{Kind: ce.Kind, Op: op, Err: err}
	}
	return &CallError{Kind: Classify(err), Op: op, Err: err}
}

// SchemaFault marks a structurally invalid model response.
func SchemaFault(op string, err error) *CallError {
	return &CallError{Kind: KindSchemaFault, Op: op, Err: err}
}

// InvalidInput marks a request the provider can never satisfy.
func InvalidInput(op string, err error) *CallError {
	return &CallError{Kind: KindInvalidInput, Op: op, Err: err}
}

// Classify maps a raw provider error onto the taxonomy. Provider SDKs
// surface HTTP failures as opaque error strings, so classification matches
// on status markers the same way rate-limit detection does.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if IsRateLimitError(err) {
		return KindTransient
	}
	errStr := err.Error()
	if strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "UNAVAILABLE") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") {
		return KindTransient
	}
	if strings.Contains(errStr, "deadline exceeded") || strings.Contains(errStr, "timeout") {
		return KindTimeout
	}
	if strings.Contains(errStr, "400") || strings.Contains(errStr, "INVALID_ARGUMENT") {
		return KindInvalidInput
	}
	return KindProviderFault
}

// KindOf returns the classified kind of err, classifying on the fly when
// it was never wrapped.
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Classify(err)
}

// IsRetryable reports whether a failed call is worth another attempt.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindTimeout:
		return true
	default:
		return false
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}
