package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// BufferedHandler is a slog.Handler that keeps records in memory, one
// line per record as "LEVEL message key=value ...". Handlers derived
// with WithAttrs or WithGroup share the buffer.
//
//	h := logging.NewBufferedHandler(nil)
//	logging.SetLogger(slog.New(h))
//	// ... open and render a document ...
//	if h.Contains("repairing cross-reference") { ... }
type BufferedHandler struct {
	level  slog.Leveler
	shared *buffer
	attrs  []slog.Attr
	groups []string
}

type buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewBufferedHandler creates a handler. With nil opts or a nil Level
// every record is kept.
func NewBufferedHandler(opts *slog.HandlerOptions) *BufferedHandler {
	h := &BufferedHandler{shared: &buffer{}}
	if opts != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled implements slog.Handler.
func (h *BufferedHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level == nil || level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	var line strings.Builder
	line.WriteString(r.Level.String())
	line.WriteByte(' ')
	line.WriteString(r.Message)
	for _, a := range h.attrs {
		h.writeAttr(&line, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&line, a)
		return true
	})
	line.WriteByte('\n')

	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.buf.WriteString(line.String())
	return nil
}

func (h *BufferedHandler) writeAttr(w *strings.Builder, a slog.Attr) {
	w.WriteByte(' ')
	if len(h.groups) > 0 {
		w.WriteString(strings.Join(h.groups, "."))
		w.WriteByte('.')
	}
	w.WriteString(a.String())
}

// WithAttrs implements slog.Handler.
func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// String returns everything captured so far.
func (h *BufferedHandler) String() string {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	return h.shared.buf.String()
}

// Contains reports whether the captured output contains s.
func (h *BufferedHandler) Contains(s string) bool {
	return strings.Contains(h.String(), s)
}

// Lines returns the captured records.
func (h *BufferedHandler) Lines() []string {
	out := strings.TrimSuffix(h.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// WriteTo writes the captured output to w and clears it.
func (h *BufferedHandler) WriteTo(w io.Writer) (int64, error) {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	return h.shared.buf.WriteTo(w)
}

// Reset discards captured output.
func (h *BufferedHandler) Reset() {
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.buf.Reset()
}
