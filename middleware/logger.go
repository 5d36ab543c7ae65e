package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// redactedParams never reach the access log.
var redactedParams = []string{"token"}

// AccessLogger is gin's request logger with credentials stripped from the query string.
func AccessLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{Formatter: accessLogFormatter})
}

func accessLogFormatter(p gin.LogFormatterParams) string {
	if p.Latency > time.Minute {
		p.Latency = p.Latency.Truncate(time.Second)
	}
	line := fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		RedactPath(p.Path),
	)
	if p.ErrorMessage != "" {
		line += p.ErrorMessage
	}
	return line
}

// RedactPath masks sensitive query parameters in a request path.
func RedactPath(path string) string {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path
	}
	q, err := url.ParseQuery(path[i+1:])
	if err != nil {
		return path[:i] + "?[unparseable]"
	}
	changed := false
	for _, name := range redactedParams {
		if _, ok := q[name]; ok {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return path
	}
	return path[:i] + "?" + q.Encode()
}
