package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes the current-user endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/me", h.me)
	r.PATCH("/me", h.update)
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	u, err := h.service.Get(c.Request.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		// Guests and first-time tokens have no stored account yet;
		// answer from the session claims.
		respond.OK(c, User{
			ID:        userID,
			Email:     middleware.UserEmailFromContext(c),
			FullName:  middleware.UserNameFromContext(c),
			Role:      middleware.UserRoleFromContext(c),
			CreatedAt: time.Time{},
		})
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
		return
	}
	respond.OK(c, u)
}

type updateInput struct {
	Role        string `json:"role"`
	CompanyName string `json:"companyName"`
}

func (h *Handler) update(c *gin.Context) {
	if c.GetBool("isGuest") {
		respond.Error(c, http.StatusForbidden, "forbidden", "guests cannot update a profile", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	var input updateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	u, err := h.service.SetRole(c.Request.Context(), userID, input.Role, input.CompanyName)
	switch {
	case errors.Is(err, ErrInvalidRole):
		respond.Error(c, http.StatusBadRequest, "validation_error", "role must be client or contractor", nil)
		return
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "profile not found", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		return
	}
	respond.OK(c, u)
}
