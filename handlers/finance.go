package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tradocs/services/finance"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

func financeError(c *gin.Context, err error) {
	if errors.Is(err, finance.ErrInvalidGroupBy) || errors.Is(err, finance.ErrInvalidFormat) {
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	internalError(c, "Finance request failed", err)
}

// FinanceStatsHandler handles GET /api/finance/stats?preset=&start=&end=.
func (h *HandlerBundle) FinanceStatsHandler(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	cards, err := h.Finance.StatsCards(c.Request.Context(), r)
	if err != nil {
		financeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (h *HandlerBundle) report(c *gin.Context) (*finance.Report, bool) {
	r, ok := h.dateRange(c)
	if !ok {
		return nil, false
	}
	rep, err := h.Finance.Report(c.Request.Context(), r, c.DefaultQuery("groupBy", finance.GroupByDay))
	if err != nil {
		financeError(c, err)
		return nil, false
	}
	return rep, true
}

// FinanceReportHandler handles GET /api/finance/report?groupBy=day|month.
func (h *HandlerBundle) FinanceReportHandler(c *gin.Context) {
	rep, ok := h.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

// FinanceExportHandler handles GET /api/finance/export?format=csv|json|pdf and
// answers with the rendered report as an attachment.
func (h *HandlerBundle) FinanceExportHandler(c *gin.Context) {
	var q struct {
		Format string `form:"format" binding:"required,exportformat"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.JSONError(c, http.StatusBadRequest, finance.ErrInvalidFormat.Error(), err.Error())
		return
	}
	rep, ok := h.report(c)
	if !ok {
		return
	}
	file, err := h.Finance.Export(rep, q.Format)
	if err != nil {
		financeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
