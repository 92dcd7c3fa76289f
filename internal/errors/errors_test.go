package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("components.missing")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, ErrCodeComponentNotFound, err.Code)
	assert.Equal(t, "Component view 'components.missing' not found", err.Detail())
	assert.Contains(t, err.Error(), "component:components.missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRenderError(err))
}

func TestNewRenderError(t *testing.T) {
	cause := fmt.Errorf("template: button:3: unexpected EOF")
	err := NewRenderError("components.button", cause)

	assert.True(t, IsRenderError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "render failed: template: button:3: unexpected EOF", err.Detail())
}

func TestPreviewErrorIs(t *testing.T) {
	a := NewNotFoundError("components.a")
	b := NewNotFoundError("components.b")
	c := NewRenderError("components.a", errors.New("boom"))

	assert.True(t, errors.Is(a, b), "same type and code compare equal")
	assert.False(t, errors.Is(a, c))
}

func TestTypeOfWrapped(t *testing.T) {
	inner := NewNotFoundError("components.x")
	wrapped := fmt.Errorf("lookup: %w", inner)

	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeFileNotFound, "read"))
	})

	t.Run("preserves component", func(t *testing.T) {
		inner := NewNotFoundError("components.card")
		wrapped := Wrap(inner, ErrorTypeMetadata, ErrCodeNoSource, "find source")

		require.NotNil(t, wrapped)
		assert.Equal(t, "components.card", wrapped.Component)
		assert.Equal(t, ErrorTypeMetadata, wrapped.Type)
		assert.True(t, errors.Is(wrapped, inner))
	})
}

func TestWrapRenderKeepsExistingRenderError(t *testing.T) {
	original := NewRenderError("components.a", errors.New("bad"))
	assert.Same(t, original, WrapRender(original, "components.b"))

	fresh := WrapRender(errors.New("bad"), "components.b")
	assert.Equal(t, "components.b", fresh.Component)
}

func TestRootCause(t *testing.T) {
	base := errors.New("disk gone")
	err := WrapIO(fmt.Errorf("open: %w", base), ErrCodeSourceUnreadable, "read source")

	assert.Equal(t, base, RootCause(err))
	assert.Nil(t, RootCause(nil))
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.warns = append(r.warns, msg)
}

func TestErrorHandlerLevels(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewNotFoundError("components.a"))
	handler.Handle(ctx, NewConfigError(ErrCodeConfigInvalid, "bad port"))
	handler.Handle(ctx, errors.New("plain"))

	assert.Len(t, logger.warns, 1)
	assert.Len(t, logger.errors, 2)
}
