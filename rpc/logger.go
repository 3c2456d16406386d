package rpc

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const RequestIdHeader = "X-Request-Id"

var requestCount atomic.Uint64

// requestId tags every request with a uuid, reusing the one sent by the
// client if any.
func requestId(c *gin.Context) {
	id := c.GetHeader(RequestIdHeader)
	if id == "" {
		id = uuid.New().String()
	}
	requestCount.Inc()
	c.Set("request_id", id)
	c.Header(RequestIdHeader, id)
	c.Next()
}

// RequestCount is the number of requests served since start.
func RequestCount() uint64 {
	return requestCount.Load()
}

// ginLogFormatter routes gin access logs to logrus at trace level.
var ginLogFormatter = func(param gin.LogFormatterParams) string {
	if logrus.GetLevel() < logrus.TraceLevel {
		return ""
	}
	var statusColor, methodColor, resetColor string
	if param.IsOutputColor() {
		statusColor = param.StatusCodeColor()
		methodColor = param.MethodColor()
		resetColor = param.ResetColor()
	}

	if param.Latency > time.Minute {
		param.Latency = param.Latency - param.Latency%time.Second
	}

	logEntry := fmt.Sprintf("GIN %v %s %3d %s %13v  %15s %s %-7s %s %s %s  id_%v",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		statusColor, param.StatusCode, resetColor,
		param.Latency,
		param.ClientIP,
		methodColor, param.Method, resetColor,
		param.Path,
		param.ErrorMessage,
		param.Keys["request_id"],
	)
	logrus.Tracef("gin log %v ", logEntry)
	return ""
}
