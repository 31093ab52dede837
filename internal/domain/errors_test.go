package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("title", "is required")

	assert.Equal(t, "validation: title is required", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []string{"title"}, err.Fields())
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Errors: []FieldError{
		{Field: "title", Message: "is required"},
		{Field: "content", Message: "is required"},
	}}

	assert.Equal(t, "validation: title is required; content is required", err.Error())
	assert.Equal(t, []string{"title", "content"}, err.Fields())
}

func TestValidationError_SurvivesWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("create note: %w", NewValidationError("content", "is required"))

	var ve *ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "content", ve.Errors[0].Field)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}
