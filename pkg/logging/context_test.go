package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithLoggerAndFromContext(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	got := FromContext(ctx)
	got.Info().Msg("hello from context")

	assert.True(t, tl.Contains("hello from context"))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // nil context fallback is the point
}

func TestWithRunID(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRunID(ctx, "run-42")

	assert.Equal(t, "run-42", RunID(ctx))

	FromContext(ctx).Info().Msg("tagged")
	assert.True(t, tl.Contains(`"run_id":"run-42"`))
}

func TestWithFields(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithFields(ctx, map[string]any{
		"kind": "player",
		"row":  7,
	})

	FromContext(ctx).Info().Msg("fields")
	assert.True(t, tl.Contains(`"kind":"player"`))
	assert.True(t, tl.Contains(`"row":7`))
}
