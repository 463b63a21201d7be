package logger

import (
	"context"
	"log/slog"
	"slices"
)

// Handler is a slog.Handler that forwards records to an Adapter. It lets
// slog-based context logging (ragate.LogInfo and friends) write through a
// zerolog backend.
//
// Groups are flattened into dotted attribute keys.
type Handler struct {
	backend Adapter
	attrs   []Attribute
	prefix  string
}

// NewHandler returns a slog.Handler writing to backend.
func NewHandler(backend Adapter) *Handler {
	return &Handler{backend: backend}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.backend.IsLevelEnabled(ctx, slogToLogLevel(level))
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]Attribute, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})
	h.backend.Log(ctx, slogToLogLevel(r.Level), r.Message, attrs...)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &Handler{backend: h.backend, prefix: h.prefix, attrs: slices.Clone(h.attrs)}
	for _, a := range attrs {
		next.attrs = appendAttr(next.attrs, h.prefix, a)
	}
	return next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{backend: h.backend, attrs: slices.Clone(h.attrs), prefix: h.prefix + name + "."}
}

func appendAttr(dst []Attribute, prefix string, a slog.Attr) []Attribute {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range group {
			dst = appendAttr(dst, p, ga)
		}
		return dst
	}
	return append(dst, Attribute{Key: prefix + a.Key, Value: a.Value.Any()})
}
