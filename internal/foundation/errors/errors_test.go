package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid layout").
			WithSeverity(SeverityFatal).
			WithContext("file", "tgbot.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid layout", err.Message())
		assert.Equal(t, "[config:fatal] invalid layout", err.Error())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "tgbot.yaml", file)
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := ValidationError("BOT_TOKEN is required").Build()
		wrapped := fmt.Errorf("load settings: %w", base)

		_, ok := AsClassified(wrapped)
		assert.True(t, ok)
		assert.True(t, HasCategory(wrapped, CategoryValidation))
		assert.Equal(t, CategoryValidation, GetCategory(wrapped))
		assert.True(t, errors.Is(wrapped, ValidationError("BOT_TOKEN is required").Build()))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		plain := errors.New("boom")
		_, ok := AsClassified(plain)
		assert.False(t, ok)
		assert.Equal(t, CategoryInternal, GetCategory(plain))
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Wrap keeps cause", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := WrapError(cause, CategoryFileSystem, "create directory").
			WithContext("path", "data").
			Build()

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "[filesystem:error] create directory: permission denied", err.Error())
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, RetryUserAction},
			{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError, RetryImmediate},
			{"DatabaseError", DatabaseError("x"), CategoryDatabase, SeverityError, RetryNever},
			{"VCSError", VCSError("x"), CategoryVCS, SeverityWarning, RetryNever},
			{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				assert.Equal(t, tt.category, err.Category())
				assert.Equal(t, tt.severity, err.Severity())
				assert.Equal(t, tt.retry, err.RetryStrategy())
			})
		}
	})
}

func TestErrorContextGet(t *testing.T) {
	ctx := ErrorContext{}.Set("path", "data").Set("attempts", 3)

	path, ok := ctx.GetString("path")
	require.True(t, ok)
	assert.Equal(t, "data", path)

	_, ok = ctx.GetString("attempts")
	assert.False(t, ok, "non-string values are not returned as strings")

	var empty ErrorContext
	_, ok = empty.Get("missing")
	assert.False(t, ok)
}
