package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure ActivityEventType = "auth.login.failure"
	ActivityEventTokenRefresh ActivityEventType = "auth.token.refresh"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     int64
	Identifier string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// LoggerActivitySink writes every event to a Logger at info level
type LoggerActivitySink struct {
	Logger Logger
}

// Record implements ActivitySink.
func (s LoggerActivitySink) Record(_ context.Context, event ActivityEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = defLogger{}
	}

	args := []any{"event", string(event.EventType), "user_id", event.UserID}
	if event.Identifier != "" {
		args = append(args, "identifier", event.Identifier)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}

	logger.Info("activity", args...)
	return nil
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

type multiActivitySink []ActivitySink

func (m multiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ActivitySinks fans an event out to every non nil sink
func ActivitySinks(sinks ...ActivitySink) ActivitySink {
	out := make(multiActivitySink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
