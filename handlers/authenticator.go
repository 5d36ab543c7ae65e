package handlers

import (
	"errors"
	"net/http"

	"tradocs/middleware"
	"tradocs/services/authenticator"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

func authenticatorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authenticator.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, authenticator.ErrReasonRequired), errors.Is(err, authenticator.ErrInvalidStatus):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, authenticator.ErrNotPending):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	default:
		internalError(c, "Verification request failed", err)
	}
}

// VerificationQueueHandler handles GET /api/authenticator/queue?status=.
func (h *HandlerBundle) VerificationQueueHandler(c *gin.Context) {
	items, err := h.Authenticators.ListQueue(c.Request.Context(), c.Query("status"))
	if err != nil {
		authenticatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HandlerBundle) ApproveVerificationHandler(c *gin.Context) {
	v, err := h.Authenticators.Approve(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		authenticatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *HandlerBundle) RejectVerificationHandler(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, authenticator.ErrReasonRequired.Error(), err.Error())
		return
	}
	v, err := h.Authenticators.Reject(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		authenticatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ReviewStatsHandler handles GET /api/authenticator/stats for the caller's own reviews.
func (h *HandlerBundle) ReviewStatsHandler(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	stats, err := h.Authenticators.Stats(c.Request.Context(), middleware.CurrentUserID(c), r)
	if err != nil {
		authenticatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
