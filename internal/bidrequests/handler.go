package bidrequests

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes bid request endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a bid request handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the bid request endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/bid-requests", middleware.RequireRole(middleware.RoleClient, middleware.RoleAdmin), h.create)
	r.GET("/bid-requests", h.browse)
	r.GET("/bid-requests/mine", h.listMine)
	r.GET("/bid-requests/:id", h.get)
	r.POST("/bid-requests/:id/questions", h.askQuestion)
	r.GET("/bid-requests/:id/questions", h.listQuestions)
	r.POST("/questions/:id/answers", h.answerQuestion)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	userName := middleware.UserNameFromContext(c)

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	request, err := h.service.Create(c.Request.Context(), userID, userName, input)
	switch {
	case errors.Is(err, ErrMissingTitle),
		errors.Is(err, ErrMissingDescription),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidWindow):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	case errors.Is(err, plans.ErrNotFound):
		respond.Error(c, http.StatusBadRequest, "validation_error", "referenced plan file not found", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create bid request", nil)
		return
	}

	c.Set("bidRequestId", request.ID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Bid request posted",
		"bidRequestId": request.ID,
		"bidRequest":   request,
	})
}

func (h *Handler) browse(c *gin.Context) {
	summaries, err := h.service.Browse(c.Request.Context(),
		c.Query("search"), c.Query("tab"), c.Query("sort"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list bid requests", nil)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	respond.OK(c, gin.H{"bidRequests": summaries})
}

func (h *Handler) listMine(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	requests, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list bid requests", nil)
		return
	}
	if requests == nil {
		requests = []*BidRequest{}
	}
	respond.OK(c, gin.H{"bidRequests": requests})
}

func (h *Handler) get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "bid request not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load bid request", nil)
		return
	}
	c.Set("bidRequestId", request.ID)
	respond.OK(c, request)
}

type messageInput struct {
	Body string `json:"body"`
}

func (h *Handler) askQuestion(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)
	name := middleware.UserNameFromContext(c)

	var input messageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	question, err := h.service.AskQuestion(c.Request.Context(), c.Param("id"), userID, role, name, input.Body)
	switch {
	case errors.Is(err, ErrEmptyBody):
		respond.Error(c, http.StatusBadRequest, "validation_error", "a question body is required", nil)
		return
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid request not found", nil)
		return
	case errors.Is(err, ErrNotOpen):
		respond.Error(c, http.StatusConflict, "conflict", "bid request is not open", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to post question", nil)
		return
	}

	c.Set("bidRequestId", question.BidRequestID)
	respond.JSON(c, http.StatusCreated, question)
}

func (h *Handler) listQuestions(c *gin.Context) {
	questions, err := h.service.Questions(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "bid request not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list questions", nil)
		return
	}
	if questions == nil {
		questions = []*Question{}
	}
	respond.OK(c, gin.H{"questions": questions})
}

func (h *Handler) answerQuestion(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)
	name := middleware.UserNameFromContext(c)

	var input messageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	answer, err := h.service.AnswerQuestion(c.Request.Context(), c.Param("id"), userID, role, name, input.Body)
	switch {
	case errors.Is(err, ErrEmptyBody):
		respond.Error(c, http.StatusBadRequest, "validation_error", "an answer body is required", nil)
		return
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "question not found", nil)
		return
	case errors.Is(err, ErrNotOwner):
		respond.Error(c, http.StatusForbidden, "forbidden", "only the request owner may answer", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to post answer", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, answer)
}
