package goSession

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// NotificationSink receives the outcome of every operation. Sinks are purely
// observational; nothing they do affects session state.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// NotificationSinkFunc adapts a function to [NotificationSink].
type NotificationSinkFunc func(ctx context.Context, n Notification)

func (f NotificationSinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type NoOpSink struct{}

func (NoOpSink) Notify(context.Context, Notification) {}

// ChannelSink writes notifications into a buffered channel the caller drains.
type ChannelSink struct {
	events  chan Notification
	dropped atomic.Uint64
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Notification, buffer),
	}
}

// Notify never blocks: a notification that does not fit the buffer is dropped
// and counted.
func (s *ChannelSink) Notify(_ context.Context, n Notification) {
	select {
	case s.events <- n:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of notifications lost to a full buffer.
func (s *ChannelSink) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *ChannelSink) Events() <-chan Notification {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Notify(_ context.Context, n Notification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogSink logs success notifications at info and errors at warn.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, n Notification) {
	if s.Logger == nil {
		return
	}
	level := slog.LevelInfo
	if n.Kind == NotifyError {
		level = slog.LevelWarn
	}
	s.Logger.Log(ctx, level, n.Title,
		slog.String("operation", string(n.Operation)),
		slog.String("kind", string(n.Kind)),
		slog.String("description", n.Description),
	)
}

// MultiSink fans a notification out to every sink in order.
type MultiSink []NotificationSink

func (m MultiSink) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}
