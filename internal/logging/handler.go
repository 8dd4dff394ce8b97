// Package logging mirrors warnings and errors from slog into the
// database-backed event log shown on the admin dashboard.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/kiorffen/blogfront/internal/model"
	"github.com/kiorffen/blogfront/internal/store"
)

// EventLogHandler wraps another slog.Handler. Records at WARN and above
// are additionally persisted as events.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler wraps inner so that WARN+ records also land in the
// events table.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.inner.Handle(ctx, r)
	if err != nil {
		return err
	}

	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, level: h.level}
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), queries: h.queries, level: h.level}
}

// persist stores the record as an event. A background context is used so
// the event survives cancellation of the request that logged it. Failures
// here are swallowed: the record already went to the inner handler.
func (h *EventLogHandler) persist(r slog.Record) {
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     h.slogLevelToEventLevel(r.Level),
		Category:  h.categoryFor(r),
		Message:   r.Message,
		Metadata:  h.metadataJSON(r),
		CreatedAt: r.Time,
	})
}

func (h *EventLogHandler) slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// categoryFor picks the event category: an explicit "category" attribute
// wins, otherwise the message text is matched against known keywords.
func (h *EventLogHandler) categoryFor(r slog.Record) string {
	var explicit string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			explicit = a.Value.String()
			return false
		}
		return true
	})
	if explicit != "" {
		return explicit
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "auth"), strings.Contains(msg, "login"), strings.Contains(msg, "logout"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "backend"), strings.Contains(msg, "api"):
		return model.EventCategoryBackend
	default:
		return model.EventCategorySystem
	}
}

// metadataJSON flattens the record's attributes into a flat JSON object
// of string values. The "category" attribute is omitted since it is
// stored in its own column.
func (h *EventLogHandler) metadataJSON(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteByte('"')
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteByte('"')
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
