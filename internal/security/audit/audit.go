package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits a structured log line for every admin decision. Nothing
// is persisted beyond the cluster's admin comment; the log is the only
// trail.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, admin, action string, clusterID int64, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.Int64("cluster_id", clusterID),
		slog.String("admin", admin),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDecision(ctx context.Context, admin, decision string, clusterID int64, comment string) {
	al.LogAction(ctx, admin, decision, clusterID, "applied", comment)
}

func (al *Logger) LogDenied(ctx context.Context, caller, reason string) {
	al.LogAction(ctx, caller, "access_denied", 0, "denied", reason)
}
