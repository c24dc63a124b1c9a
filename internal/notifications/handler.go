package notifications

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes notification endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the notification endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/notifications", h.list)
	r.POST("/notifications/:id/read", h.markRead)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notifications", nil)
		return
	}
	if items == nil {
		items = []*Notification{}
	}
	respond.OK(c, gin.H{"notifications": items})
}

func (h *Handler) markRead(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.service.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update notification", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
