package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	err := errors.New("boom")

	f := fields([]any{"experiment", "reviews", "versions", 2, err})

	assert.Equal(t, "reviews", f["experiment"])
	assert.Equal(t, 2, f["versions"])
	assert.Equal(t, err, f["error"])
}

func TestFieldsNonStringKey(t *testing.T) {
	f := fields([]any{42, "answer"})
	assert.Equal(t, "answer", f["42"])
}

func TestFieldsSingleError(t *testing.T) {
	err := errors.New("only")
	f := fields([]any{err})
	assert.Len(t, f, 1)
	assert.Equal(t, err, f["error"])
}
