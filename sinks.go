package authkit

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologSink is an [AuditSink] that writes each event as a structured log
// line through a zerolog logger.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink creates a sink logging through logger at info level for
// successful events and warn level for failures.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

func (s *ZerologSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil {
		return
	}

	var e *zerolog.Event
	if event.Success {
		e = s.logger.Info()
	} else {
		e = s.logger.Warn()
	}

	e = e.Time("ts", event.Timestamp).
		Str("event", event.EventType).
		Bool("success", event.Success)
	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.RequestID != "" {
		e = e.Str("request_id", event.RequestID)
	}
	if event.Status != "" {
		e = e.Str("session_status", event.Status)
	}
	if event.Error != "" {
		e = e.Str("error", event.Error)
	}
	for k, v := range event.Metadata {
		e = e.Str(k, v)
	}

	e.Msg("audit")
}
