package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"rate limit 429", errors.New("Error 429, Message: quota exceeded"), KindTransient},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: per-minute quota"), KindTransient},
		{"bad gateway", errors.New("unexpected status 502 Bad Gateway"), KindTransient},
		{"unavailable", errors.New("rpc error: UNAVAILABLE"), KindTransient},
		{"overloaded", errors.New("overloaded_error: try again"), KindTransient},
		{"connection reset", errors.New("read tcp: connection reset by peer"), KindTransient},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), KindTimeout},
		{"timeout text", errors.New("client timeout while awaiting headers"), KindTimeout},
		{"invalid argument", errors.New("Error 400: INVALID_ARGUMENT"), KindInvalidInput},
		{"anything else", errors.New("internal provider error"), KindProviderFault},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestNewCallError_PreservesExistingKind(t *testing.T) {
	inner := SchemaFault("extract", errors.New("missing field"))
	wrapped := NewCallError("outer", fmt.Errorf("attempt failed: %w", inner))

	assert.Equal(t, KindSchemaFault, wrapped.Kind)
	assert.Equal(t, "outer", wrapped.Op)
}

func TestKindOf_UnwrapsThroughLayers(t *testing.T) {
	err := fmt.Errorf("job 12: %w", NewCallError("validate.header", errors.New("Error 503")))
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewCallError("op", errors.New("429 too many requests"))))
	assert.True(t, IsRetryable(NewCallError("op", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(SchemaFault("op", errors.New("verdict count mismatch"))))
	assert.False(t, IsRetryable(InvalidInput("op", errors.New("empty document"))))
	assert.False(t, IsRetryable(NewCallError("op", errors.New("provider exploded"))))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("Error 429")))
	assert.True(t, IsRateLimitError(errors.New("rate_limit_error")))
	assert.False(t, IsRateLimitError(errors.New("404 not found")))
	assert.False(t, IsRateLimitError(nil))
}
