package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDKey is the gin context key under which the middleware stores the
// per-request trace id.
const TraceIDKey = "traceId"

// GetTraceIdOfRequest returns the trace id set by the logging middleware.
// If the middleware did not run (direct handler invocation in tests), a fresh
// id is generated so log lines are still correlated.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(TraceIDKey).(string)
	if !ok || traceId == "" {
		return uuid.NewString()
	}
	return traceId
}
