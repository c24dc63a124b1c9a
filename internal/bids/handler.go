package bids

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/bidrequests"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/server/respond"
)

// Handler exposes bid endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a bid handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the bid endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/bid-requests/:id/bids", middleware.RequireRole(middleware.RoleContractor, middleware.RoleAdmin), h.submit)
	r.GET("/bid-requests/:id/bids", h.listByRequest)
	r.POST("/bid-requests/:id/award", middleware.RequireRole(middleware.RoleClient, middleware.RoleAdmin), h.award)
	r.GET("/bids/mine", h.listMine)
	r.POST("/bids/:id/withdraw", middleware.RequireRole(middleware.RoleContractor, middleware.RoleAdmin), h.withdraw)
}

func (h *Handler) submit(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	userName := middleware.UserNameFromContext(c)

	var input SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	bid, err := h.service.Submit(c.Request.Context(), userID, userName, c.Param("id"), input)
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingTimeline):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	case errors.Is(err, bidrequests.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid request not found", nil)
		return
	case errors.Is(err, ErrBiddingClosed), errors.Is(err, ErrAlreadyBid):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
		return
	case errors.Is(err, ErrOwnRequest):
		respond.Error(c, http.StatusForbidden, "forbidden", "cannot bid on your own request", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit bid", nil)
		return
	}

	c.Set("bidRequestId", bid.BidRequestID)
	respond.JSON(c, http.StatusCreated, bid)
}

func (h *Handler) listByRequest(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	role := middleware.UserRoleFromContext(c)

	bids, err := h.service.ListByRequest(c.Request.Context(), userID, role, c.Param("id"))
	if errors.Is(err, bidrequests.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "bid request not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list bids", nil)
		return
	}
	if bids == nil {
		bids = []*Bid{}
	}
	respond.OK(c, gin.H{"bids": bids})
}

type awardInput struct {
	BidID string `json:"bidId"`
}

func (h *Handler) award(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var input awardInput
	if err := c.ShouldBindJSON(&input); err != nil || input.BidID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "bidId is required", nil)
		return
	}

	bid, err := h.service.Award(c.Request.Context(), userID, c.Param("id"), input.BidID)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, bidrequests.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid not found", nil)
		return
	case errors.Is(err, ErrWrongRequest):
		respond.Error(c, http.StatusBadRequest, "validation_error", "bid does not belong to this request", nil)
		return
	case errors.Is(err, bidrequests.ErrNotOwner):
		respond.Error(c, http.StatusForbidden, "forbidden", "only the request owner may award", nil)
		return
	case errors.Is(err, bidrequests.ErrNotOpen), errors.Is(err, ErrNotWithdrawable):
		respond.Error(c, http.StatusConflict, "conflict", "bid request is not open", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to award bid", nil)
		return
	}

	c.Set("bidRequestId", bid.BidRequestID)
	respond.OK(c, bid)
}

func (h *Handler) listMine(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	bids, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list bids", nil)
		return
	}
	if bids == nil {
		bids = []*Bid{}
	}
	respond.OK(c, gin.H{"bids": bids})
}

func (h *Handler) withdraw(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	bid, err := h.service.Withdraw(c.Request.Context(), userID, c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "bid not found", nil)
		return
	case errors.Is(err, ErrNotYours):
		respond.Error(c, http.StatusForbidden, "forbidden", "bid belongs to another contractor", nil)
		return
	case errors.Is(err, ErrNotWithdrawable):
		respond.Error(c, http.StatusConflict, "conflict", "only submitted bids can be withdrawn", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to withdraw bid", nil)
		return
	}

	respond.OK(c, bid)
}
