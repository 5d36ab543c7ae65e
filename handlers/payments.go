package handlers

import (
	"errors"
	"io"
	"net/http"

	paymentRepo "tradocs/database/repository/payment"
	"tradocs/middleware"
	"tradocs/services/payment"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = 65536

func paymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, payment.ErrNoDocuments):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, payment.ErrNotDraft), errors.Is(err, payment.ErrNotRefundable), errors.Is(err, payment.ErrCheckoutOpen):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	default:
		internalError(c, "Payment request failed", err)
	}
}

// CheckoutHandler handles POST /api/payments/checkout.
func (h *HandlerBundle) CheckoutHandler(c *gin.Context) {
	var req struct {
		DocumentIDs   []string `json:"documentIds" binding:"required,min=1"`
		AffiliateCode string   `json:"affiliateCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Payments.CreateCheckout(c.Request.Context(), middleware.CurrentUserID(c), req.DocumentIDs, req.AffiliateCode)
	if err != nil {
		paymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *HandlerBundle) ListMyPaymentsHandler(c *gin.Context) {
	payments, err := h.Payments.ListUserPayments(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		paymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// StripeWebhookHandler handles POST /api/payments/webhook. The raw body is
// needed for signature verification, so nothing may bind it first.
func (h *HandlerBundle) StripeWebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to read webhook body", err.Error())
		return
	}
	err = h.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, payment.ErrInvalidSignature):
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook signature", "")
	case errors.Is(err, payment.ErrMissingSecret):
		internalError(c, "Webhook secret not configured", err)
	default:
		// a 5xx makes Stripe retry the delivery
		utils.GetLogger().Error("Webhook processing failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, utils.ErrorResponse{Message: "Webhook processing failed"})
	}
}

// ListPaymentsHandler handles GET /api/finance/payments?status=&userId=&preset=&start=&end=.
func (h *HandlerBundle) ListPaymentsHandler(c *gin.Context) {
	filter := paymentRepo.PaymentFilter{
		UserID:   c.Query("userId"),
		Statuses: csvQuery(c, "status"),
	}
	if c.Query("preset") != "" || c.Query("start") != "" || c.Query("end") != "" {
		r, ok := h.dateRange(c)
		if !ok {
			return
		}
		filter.From, filter.To = r.Start, r.End
	}
	payments, err := h.Payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		paymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *HandlerBundle) RefundPaymentHandler(c *gin.Context) {
	p, err := h.Payments.Refund(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		paymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
