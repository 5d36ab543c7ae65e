package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tradocs/middleware"
	"tradocs/services/daterange"
	"tradocs/services/document"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func actorFrom(c *gin.Context) document.Actor {
	return document.Actor{UserID: middleware.CurrentUserID(c), Role: middleware.CurrentRole(c)}
}

// dateRange reads ?preset=&start=&end= and answers 400 itself on a bad range.
func (h *HandlerBundle) dateRange(c *gin.Context) (daterange.Range, bool) {
	r, err := daterange.Parse(c.Query("preset"), c.Query("start"), c.Query("end"), h.now(), h.location())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date range", err.Error())
		return daterange.Range{}, false
	}
	return r, true
}

// csvQuery splits a comma separated query value, dropping blanks.
func csvQuery(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intQuery(c *gin.Context, key string, def int64) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}

func internalError(c *gin.Context, message string, err error) {
	utils.GetLogger().Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, utils.ErrorResponse{Message: message})
}
