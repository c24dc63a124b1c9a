package plans

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes plan file endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a plan handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the plan endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/plans", h.upload)
	r.GET("/plans", h.list)
	r.GET("/plans/:id", h.get)
	r.DELETE("/plans/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "expected multipart form upload", nil)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no files provided", nil)
		return
	}

	uploads := make([]Upload, 0, len(files))
	opened := make([]interface{ Close() error }, 0, len(files))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", map[string]any{"fileName": fh.Filename})
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, Upload{
			FileName:  fh.Filename,
			MimeType:  fh.Header.Get("Content-Type"),
			SizeBytes: fh.Size,
			Content:   f,
		})
	}

	result, err := h.service.UploadBatch(c.Request.Context(), userID, uploads)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process upload", nil)
		return
	}

	status := http.StatusCreated
	if len(result.Accepted) == 0 {
		// Nothing was staged; surface the rejections without pretending success.
		status = http.StatusUnprocessableEntity
	}
	respond.JSON(c, status, result)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	plansList, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list plans", nil)
		return
	}
	if plansList == nil {
		plansList = []*PlanFile{}
	}
	respond.OK(c, gin.H{"plans": plansList})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	plan, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load plan", nil)
		return
	}
	respond.OK(c, plan)
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.service.Remove(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to remove plan", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
