package matching

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
	"planmatch-backend/internal/usage"
)

// Handler exposes match attempt endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a matching handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the matching endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/matches", h.start)
	r.GET("/matches", h.list)
	r.GET("/matches/:id", h.get)
}

func (h *Handler) start(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var input StartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	attempt, err := h.service.Start(c.Request.Context(), userID, input)
	switch {
	case errors.Is(err, ErrMissingPlan):
		respond.Error(c, http.StatusBadRequest, "validation_error", "a plan file is required", nil)
		return
	case errors.Is(err, ErrMissingDescription):
		respond.Error(c, http.StatusBadRequest, "validation_error", "a project description is required", nil)
		return
	case errors.Is(err, plans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
		return
	case errors.Is(err, usage.ErrQuotaExceeded):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "match quota exhausted for this cycle", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start match attempt", nil)
		return
	}

	c.Set("matchAttemptId", attempt.ID)
	respond.JSON(c, http.StatusAccepted, attempt)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	attempts, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list match attempts", nil)
		return
	}
	if attempts == nil {
		attempts = []*Attempt{}
	}
	respond.OK(c, gin.H{"attempts": attempts})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	attempt, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "match attempt not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load match attempt", nil)
		return
	}
	c.Set("matchAttemptId", attempt.ID)
	respond.OK(c, attempt)
}
