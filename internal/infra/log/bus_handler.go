package logs

import (
	"context"
	"log/slog"

	"ulink/internal/domain/entity"
	"ulink/internal/infra/bus"
)

// BusHandler is a slog.Handler that mirrors every record onto the
// engine's log topic in addition to the wrapped handler. It backs the
// debug-mode log stream exposed to host applications.
type BusHandler struct {
	inner slog.Handler
	topic *bus.Topic[entity.LogEntry]
	tag   string
}

// NewBusHandler wraps inner and publishes records to topic.
func NewBusHandler(inner slog.Handler, topic *bus.Topic[entity.LogEntry]) *BusHandler {
	return &BusHandler{inner: inner, topic: topic, tag: "ulink"}
}

// Enabled implements slog.Handler.
func (h *BusHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *BusHandler) Handle(ctx context.Context, record slog.Record) error {
	h.topic.Publish(entity.LogEntry{
		Level:           record.Level.String(),
		Tag:             h.tag,
		Message:         record.Message,
		TimestampMillis: record.Time.UnixMilli(),
	})

	return h.inner.Handle(ctx, record)
}

// WithAttrs implements slog.Handler.
func (h *BusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BusHandler{inner: h.inner.WithAttrs(attrs), topic: h.topic, tag: h.tag}
}

// WithGroup implements slog.Handler. The group name doubles as the log
// entry tag.
func (h *BusHandler) WithGroup(name string) slog.Handler {
	return &BusHandler{inner: h.inner.WithGroup(name), topic: h.topic, tag: name}
}
