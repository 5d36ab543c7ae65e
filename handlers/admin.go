package handlers

import (
	"net/http"

	"tradocs/middleware"
	"tradocs/models"

	"github.com/gin-gonic/gin"
)

// AdminOverviewHandler handles GET /api/admin/overview?preset=&start=&end=.
func (h *HandlerBundle) AdminOverviewHandler(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	overview, err := h.Admin.Overview(c.Request.Context(), r)
	if err != nil {
		internalError(c, "Failed to build overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// LegalDocumentationHandler serves the policies for the caller's role.
// Anonymous callers get the customer-facing set.
func (h *HandlerBundle) LegalDocumentationHandler(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == "" {
		role = models.RoleCustomer
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"version": "v1.0",
		"data":    h.Admin.GetLegalSectionsFor(role),
	})
}
