package zeroexorder

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorReporter receives diagnostics for failures that are not expected
// user outcomes
type ErrorReporter interface {
	Report(ctx context.Context, err error) string
}

// LogReporter writes reports to a zap logger and tags each with an incident ID
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a LogReporter
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger}
}

// Report logs err and returns the incident ID
func (r *LogReporter) Report(_ context.Context, err error) string {
	id := uuid.NewString()
	r.logger.Error("error report",
		zap.String("incident_id", id),
		zap.Error(err),
	)
	return id
}
