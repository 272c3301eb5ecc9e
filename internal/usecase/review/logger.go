package review

import "context"

// Logger provides structured logging for the review use case. The
// orchestrator logs pipeline progress and recoverable problems with
// structured fields for observability.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	// Fields typically include error details, paths, and context.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	// Fields typically include operation details and metadata.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}
