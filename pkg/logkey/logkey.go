package logkey

// Common keys used for structured logging across handlers and stores.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
	UserID  = "UserID"
	OrderID = "OrderID"
)
