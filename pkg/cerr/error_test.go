package cerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge-ai/taskforge/pkg/storage"
)

func TestErrorMessage(t *testing.T) {
	err := NewError(NotFound, "task not found", nil)
	assert.Equal(t, "[NotFound] task not found", err.Error())

	wrapped := NewError(Internal, "server error", errors.New("disk full"))
	assert.Equal(t, "[Internal] server error: disk full", wrapped.Error())
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := NewError(FailedPrecondition, "task is not startable", nil)
	assert.True(t, IsCode(err, FailedPrecondition))
	assert.False(t, IsCode(err, NotFound))
	assert.Equal(t, FailedPrecondition, CodeOf(err))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("execute: %w", err)
	assert.True(t, IsCode(wrapped, FailedPrecondition))

	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, OK, CodeOf(nil))
	assert.False(t, IsCode(errors.New("plain"), Internal))
}

func TestStackCapturedForServerErrorsOnly(t *testing.T) {
	assert.NotEmpty(t, NewError(Internal, "server error", nil).Stack)
	assert.Empty(t, NewError(NotFound, "task not found", nil).Stack)
	assert.Empty(t, NewError(InvalidArgument, "bad request", nil).Stack)
}

func TestHTTPCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{OK, http.StatusOK},
		{InvalidArgument, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{AlreadyExists, http.StatusConflict},
		{FailedPrecondition, http.StatusPreconditionFailed},
		{Unavailable, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPCode(), tt.code.String())
	}
}

func TestWrapStorageErrors(t *testing.T) {
	notFound := fmt.Errorf("tasks/x.yaml: %w", storage.ErrNotFound)
	assert.True(t, IsCode(WrapStorageReadError("task", notFound), NotFound))
	assert.True(t, IsCode(WrapStorageDeleteError("task", notFound), NotFound))

	ioErr := errors.New("disk full")
	assert.True(t, IsCode(WrapStorageReadError("task", ioErr), Internal))
	assert.True(t, IsCode(WrapStorageWriteError("task", ioErr), Internal))
}
