// Package notify surfaces user-visible messages without blocking the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier is a fire-and-forget sink for user-visible messages.
type Notifier interface {
	Notify(ctx context.Context, message string, kind Kind)
}

// Notification is one delivered message.
type Notification struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs every message.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, message string, kind Kind) {
	level := slog.LevelInfo
	if kind == KindError {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "user notification",
		slog.String("kind", string(kind)),
		slog.String("message", message),
	)
}

// Flash collects notifications for the current request so they can be
// returned with the response.
type Flash struct {
	mu    sync.Mutex
	items []Notification
}

// NewFlash creates an empty collector.
func NewFlash() *Flash {
	return &Flash{}
}

func (f *Flash) Notify(_ context.Context, message string, kind Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, Notification{Message: message, Kind: kind})
}

// Drain returns the collected notifications and resets the collector.
func (f *Flash) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	return out
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string, kind Kind) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, message, kind)
		}
	}
}

type flashKey struct{}

// WithFlash attaches a per-request collector to ctx.
func WithFlash(ctx context.Context, f *Flash) context.Context {
	return context.WithValue(ctx, flashKey{}, f)
}

// FlashFromContext returns the collector attached to ctx, or nil.
func FlashFromContext(ctx context.Context) *Flash {
	f, _ := ctx.Value(flashKey{}).(*Flash)
	return f
}

// ContextNotifier delivers to the Flash found in the call's context. Calls
// without one are dropped; pair it with other sinks through Multi.
type ContextNotifier struct{}

func (ContextNotifier) Notify(ctx context.Context, message string, kind Kind) {
	if f := FlashFromContext(ctx); f != nil {
		f.Notify(ctx, message, kind)
	}
}
