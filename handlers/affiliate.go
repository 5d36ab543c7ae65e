package handlers

import (
	"errors"
	"net/http"

	withdrawalRepo "tradocs/database/repository/withdrawal"
	"tradocs/middleware"
	"tradocs/services/affiliate"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

func affiliateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, affiliate.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, affiliate.ErrNotAffiliate):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, affiliate.ErrBelowMinimum),
		errors.Is(err, affiliate.ErrInsufficientBalance),
		errors.Is(err, affiliate.ErrReasonRequired):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, affiliate.ErrOpenRequest), errors.Is(err, affiliate.ErrInvalidTransition):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	default:
		internalError(c, "Affiliate request failed", err)
	}
}

func (h *HandlerBundle) AffiliateBalanceHandler(c *gin.Context) {
	bal, err := h.Affiliates.Balance(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		affiliateError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *HandlerBundle) ListMyWithdrawalsHandler(c *gin.Context) {
	items, err := h.Affiliates.ListMine(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		affiliateError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HandlerBundle) RequestWithdrawalHandler(c *gin.Context) {
	var req affiliate.WithdrawalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	w, err := h.Affiliates.RequestWithdrawal(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		affiliateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *HandlerBundle) CancelWithdrawalHandler(c *gin.Context) {
	w, err := h.Affiliates.CancelRequest(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		affiliateError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListWithdrawalsHandler handles GET /api/finance/withdrawals?status=&affiliateId=.
func (h *HandlerBundle) ListWithdrawalsHandler(c *gin.Context) {
	items, err := h.Affiliates.ListRequests(c.Request.Context(), withdrawalRepo.WithdrawalFilter{
		AffiliateID: c.Query("affiliateId"),
		Statuses:    csvQuery(c, "status"),
	})
	if err != nil {
		affiliateError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type withdrawalDecision struct {
	Notes string `json:"notes"`
}

// WithdrawalActionHandler serves approve, reject and paid under
// /api/finance/withdrawals/:id/<action>.
func (h *HandlerBundle) WithdrawalActionHandler(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req withdrawalDecision
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
		}
		ctx, actorID, id := c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")

		var err error
		var w any
		switch action {
		case "approve":
			w, err = h.Affiliates.Approve(ctx, actorID, id, req.Notes)
		case "reject":
			w, err = h.Affiliates.Reject(ctx, actorID, id, req.Notes)
		case "paid":
			w, err = h.Affiliates.MarkPaid(ctx, actorID, id, req.Notes)
		default:
			utils.JSONError(c, http.StatusNotFound, "Unknown action", action)
			return
		}
		if err != nil {
			affiliateError(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	}
}
