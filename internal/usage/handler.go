package usage

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes the quota endpoint.
type Handler struct {
	service *Service
}

// NewHandler creates a usage handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the usage endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/usage", h.get)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	quota, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load usage", nil)
		return
	}
	respond.OK(c, gin.H{
		"plan":      quota.Plan,
		"maxUnits":  quota.MaxUnits,
		"used":      quota.Used,
		"remaining": quota.Remaining(),
		"resetsAt":  quota.ResetsAt,
	})
}
