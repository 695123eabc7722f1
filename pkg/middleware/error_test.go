package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error struct {
		Code    string           `json:"code"`
		Message string           `json:"message"`
		Details []errutil.Detail `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Error())
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(err)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorRendersBaseError(t *testing.T) {
	w, body := serve(t, errutil.NotFound("Task not found", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", body.Error.Code)
	require.Equal(t, "Task not found", body.Error.Message)

	w, body = serve(t, errutil.ValidationFailed("Name is required", nil,
		errutil.WithDetails(errutil.Detail{Field: "name", Message: "Name is required"})))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, body.Error.Details, 1)
}

func TestErrorHidesInternalCause(t *testing.T) {
	w, body := serve(t, errutil.Internal("Failed to update task", errors.New("pq: connection refused")))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Failed to update task", body.Error.Message)

	w, body = serve(t, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "internal", body.Error.Code)

	w, _ = serve(t, context.DeadlineExceeded)
	require.Equal(t, http.StatusRequestTimeout, w.Code)
}

func TestErrorPassesThroughWithoutErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Error())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}
