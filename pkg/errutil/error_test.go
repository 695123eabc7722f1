package errutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsKeepWrappedError(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("failed to update task", cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "[internal] failed to update task: disk full", err.Error())
	require.Equal(t, StatusInternal, StatusOf(err))
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("Task not found", nil))

	require.Equal(t, StatusNotFound, StatusOf(wrapped))
	require.Equal(t, StatusTimeout, StatusOf(context.DeadlineExceeded))
	require.Equal(t, StatusInternal, StatusOf(errors.New("boom")))
	require.Equal(t, CoreStatus(""), StatusOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[CoreStatus]int{
		StatusBadRequest:       http.StatusBadRequest,
		StatusValidationFailed: http.StatusBadRequest,
		StatusUnauthorized:     http.StatusUnauthorized,
		StatusNotFound:         http.StatusNotFound,
		StatusInternal:         http.StatusInternalServerError,
		StatusUnknown:          http.StatusInternalServerError,
	}

	for status, want := range cases {
		require.Equal(t, want, status.HTTPStatus(), status)
	}
}

func TestJSONIncludesDetails(t *testing.T) {
	err := ValidationFailed("invalid task payload", nil, WithDetails(Detail{Field: "name", Message: "must be a non-empty string"}))

	var be BaseError
	require.True(t, errors.As(err, &be))

	body := be.JSON().(map[string]interface{})["error"].(map[string]interface{})
	require.Equal(t, StatusValidationFailed, body["code"])
	require.Equal(t, "invalid task payload", body["message"])
	require.Len(t, body["details"], 1)
}
