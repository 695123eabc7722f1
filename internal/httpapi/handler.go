package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"
	"github.com/gtn1024/puratodo-sub001/services/recurrence"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderUserID = "X-User-ID"

	scopeField          = "recurrence_update_scope"
	defaultPreviewCount = 5
)

type Handler struct {
	tasks      *task.Service
	recurrence *recurrence.Service
	logger     *zap.Logger
}

func NewHandler(tasks *task.Service, rec *recurrence.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tasks:      tasks,
		recurrence: rec,
		logger:     logger.Named("httpapi"),
	}
}

func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1/tasks")
	v1.POST("", h.createTask)
	v1.GET("/:id", h.getTask)
	v1.PATCH("/:id", h.updateTask)
	v1.GET("/:id/series", h.listSeries)
	v1.GET("/:id/series.ics", h.exportSeries)
	v1.GET("/:id/recurrence/preview", h.previewRecurrence)
}

// ownerID reads the caller identity set by the upstream gateway.
func ownerID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if id == "" {
		_ = c.Error(errutil.Unauthorized("Missing "+HeaderUserID+" header", nil))
		return "", false
	}
	return id, true
}

// listScope restricts lookups to one list when ?list_id= is given.
func listScope(c *gin.Context) *string {
	if id := strings.TrimSpace(c.Query("list_id")); id != "" {
		return &id
	}
	return nil
}

func decodeBody(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		_ = c.Error(errutil.BadRequest("Request body must be a JSON object", nil))
		return nil, false
	}
	return body, true
}

func (h *Handler) createTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	body, ok := decodeBody(c)
	if !ok {
		return
	}

	t, err := task.ParseCreate(body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.tasks.Create(c.Request.Context(), owner, t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	t, err := h.tasks.Get(c.Request.Context(), owner, c.Param("id"), listScope(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) updateTask(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	body, ok := decodeBody(c)
	if !ok {
		return
	}

	scope := recurrence.ScopeSingle
	if raw, present := body[scopeField]; present {
		parsed, err := recurrence.ParseScope(raw)
		if err != nil {
			_ = c.Error(err)
			return
		}
		scope = parsed
		delete(body, scopeField)
	}

	patch, err := task.ParsePatch(body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.recurrence.UpdateTask(c.Request.Context(), recurrence.UpdateRequest{
		OwnerID: owner,
		TaskID:  c.Param("id"),
		ListID:  listScope(c),
		Scope:   scope,
		Patch:   patch,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listSeries(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	series, err := h.recurrence.Series(c.Request.Context(), owner, c.Param("id"), listScope(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": series})
}

func (h *Handler) previewRecurrence(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	count := defaultPreviewCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(errutil.BadRequest("count must be a positive integer", nil))
			return
		}
		count = n
	}

	preview, err := h.recurrence.Preview(c.Request.Context(), owner, c.Param("id"), listScope(c), count)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *Handler) exportSeries(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	out, err := h.recurrence.ExportSeries(c.Request.Context(), owner, id, listScope(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Debug("series exported", zap.String("task_id", id), zap.Int("bytes", len(out)))
	c.Header("Content-Disposition", `attachment; filename="`+id+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", out)
}
