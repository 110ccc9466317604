package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	gray   = "\033[37m"
	white  = "\033[97m"
)

// PrettyHandler renders slog records as single colored lines for terminal
// use. Color is dropped when NO_COLOR is set, so piped or collected logs
// stay clean.
type PrettyHandler struct {
	opts  slog.HandlerOptions
	w     io.Writer
	mu    *sync.Mutex
	color bool
	attrs []slog.Attr
	group string
}

type Option func(*PrettyHandler)

// WithColor forces colored output on or off regardless of NO_COLOR.
func WithColor(enabled bool) Option {
	return func(h *PrettyHandler) {
		h.color = enabled
	}
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions, options ...Option) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	handler := &PrettyHandler{
		opts:  *opts,
		w:     w,
		mu:    &sync.Mutex{},
		color: os.Getenv("NO_COLOR") == "",
		attrs: []slog.Attr{},
	}
	for _, option := range options {
		option(handler)
	}

	return handler
}

func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	var line strings.Builder

	h.paint(&line, gray, r.Time.Format("15:04:05.000"))
	line.WriteByte(' ')
	h.paint(&line, levelColor(r.Level), fmt.Sprintf("%-5s", r.Level.String()))
	line.WriteByte(' ')
	h.paint(&line, white, r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&line, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&line, a)
		return true
	})
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

func (h *PrettyHandler) appendAttr(line *strings.Builder, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	value := a.Value.Any()
	if t, ok := value.(time.Time); ok {
		value = t.Format(time.RFC3339)
	}

	// Failure attributes carry the internal denial reason; make them
	// stand out from routine request fields.
	keyColor := cyan
	if key == "error" || key == "reason" || strings.HasSuffix(key, ".error") || strings.HasSuffix(key, ".reason") {
		keyColor = red
	}

	line.WriteByte(' ')
	h.paint(line, keyColor, key)
	line.WriteByte('=')
	fmt.Fprintf(line, "%v", value)
}

func (h *PrettyHandler) paint(line *strings.Builder, color string, text string) {
	if !h.color {
		line.WriteString(text)
		return
	}
	line.WriteString(color)
	line.WriteString(text)
	line.WriteString(reset)
}

func levelColor(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return purple
	case slog.LevelInfo:
		return green
	case slog.LevelWarn:
		return yellow
	case slog.LevelError:
		return red
	}
	return white
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	copy(merged[len(h.attrs):], attrs)

	clone := *h
	clone.attrs = merged
	return &clone
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}
