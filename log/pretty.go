package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
)

const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler writes colorized key=value records, one per line.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		h.write(buf, nil, slog.Time(slog.TimeKey, r.Time))
	}

	h.write(buf, nil, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.write(buf, nil, slog.String(slog.SourceKey,
				fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.write(buf, nil, slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		h.write(buf, h.groups, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.write(buf, h.groups, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

func (h *prettyHandler) write(buf *bytes.Buffer, groups []string, a slog.Attr) {
	// Levels keep their slog.Level value so they can be colored by severity.
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup &&
		(groups != nil || a.Key != slog.LevelKey) {
		a = h.opts.ReplaceAttr(groups, a)
	}

	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, ga := range a.Value.Group() {
			h.write(buf, sub, ga)
		}

		return
	}

	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(ansiGray)

	for _, g := range groups {
		buf.WriteString(g)
		buf.WriteByte('.')
	}

	buf.WriteString(a.Key)
	buf.WriteString(ansiReset)
	buf.WriteByte('=')

	color, text := colorize(a.Value)
	buf.WriteString(color)
	buf.WriteString(text)
	buf.WriteString(ansiReset)
}

func colorize(v slog.Value) (color, text string) {
	switch v.Kind() {
	case slog.KindInt64:
		return ansiYellow, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return ansiYellow, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		if v.Bool() {
			return ansiGreen, "true"
		}

		return ansiRed, "false"
	case slog.KindDuration:
		return ansiMagenta, v.Duration().String()
	case slog.KindTime:
		return ansiBlue, v.Time().String()
	case slog.KindAny:
		if l, ok := v.Any().(slog.Level); ok {
			return levelColor(l), Level(l).String()
		}
	}

	return ansiCyan, v.String()
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return ansiRed
	case l >= slog.LevelWarn:
		return ansiYellow
	case l >= slog.LevelInfo:
		return ansiGreen
	default:
		return ansiBlue
	}
}
