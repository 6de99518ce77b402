package log

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeLayout is used when no valid time layout is provided.
	DefaultTimeLayout = time.RFC3339
	// DefaultCaller controls whether source locations are logged by default.
	DefaultCaller = false
	// DefaultPretty controls whether text output is colorized by default.
	DefaultPretty = true
)

// Option configures a [Logger].
type Option func(config) config

func apply(c config, opts ...Option) config {
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// config holds everything needed to construct a handler.
// The mutex guards against concurrent reconfiguration of a shared logger.
type config struct {
	mutex      *sync.RWMutex
	output     io.Writer
	formatTime func(time.Time) string
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

func makeConfig(w io.Writer, opts ...Option) config {
	if w == nil {
		w = io.Discard
	}

	c := config{
		mutex:      &sync.RWMutex{},
		output:     w,
		formatTime: timeFormatter(DefaultTimeLayout),
		level:      DefaultLevel,
		format:     DefaultFormat,
		caller:     DefaultCaller,
		pretty:     DefaultPretty,
	}

	return apply(c, opts...)
}

func (c config) clone(opts ...Option) config {
	c.mutex = &sync.RWMutex{}

	return apply(c, opts...)
}

func (c config) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: c.caller,
		Level:     slog.Level(c.level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}

			switch a.Key {
			case slog.TimeKey:
				t, ok := a.Value.Any().(time.Time)
				if !ok {
					return a
				}

				s := c.formatTime(t)
				if s == "" {
					return slog.Attr{}
				}

				a.Value = slog.StringValue(s)

			case slog.LevelKey:
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToUpper(Level(l).String()))
				}
			}

			return a
		},
	}
}

func (c config) handler() slog.Handler {
	opts := c.handlerOptions()

	switch c.format {
	case FormatJSON:
		return slog.NewJSONHandler(c.output, opts)

	case FormatText:
		if c.pretty {
			return newPrettyHandler(c.output, opts)
		}

		return slog.NewTextHandler(c.output, opts)

	default:
		return slog.DiscardHandler
	}
}

// locked returns an option that runs fn with the config mutex held.
func locked(fn func(*config)) Option {
	return func(c config) config {
		if c.mutex == nil {
			c.mutex = &sync.RWMutex{}
		}

		c.mutex.Lock()
		defer c.mutex.Unlock()

		fn(&c)

		return c
	}
}

// WithOutput sets the destination of log records.
// A nil writer discards all output.
func WithOutput(w io.Writer) Option {
	if w == nil {
		w = io.Discard
	}

	return locked(func(c *config) { c.output = w })
}

// WithLevel sets the minimum level of emitted records.
func WithLevel(level Level) Option {
	return locked(func(c *config) { c.level = level })
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return locked(func(c *config) { c.format = format })
}

// WithTimeLayout sets the timestamp layout.
//
// Named layouts of the [time] package are accepted case-insensitively
// ("RFC3339", "kitchen", "stampmilli", ...); anything else is passed to
// [time.Time.Format] verbatim. An empty layout or "none" omits timestamps.
func WithTimeLayout(layout string) Option {
	format := timeFormatter(layout)

	return locked(func(c *config) { c.formatTime = format })
}

// WithCaller enables or disables source locations in records.
func WithCaller(enable bool) Option {
	return locked(func(c *config) { c.caller = enable })
}

// WithPretty enables or disables colorized text output.
// It has no effect on JSON output.
func WithPretty(enable bool) Option {
	return locked(func(c *config) { c.pretty = enable })
}

var namedLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rfc822":      time.RFC822,
	"kitchen":     time.Kitchen,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"stampnano":   time.StampNano,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,
	"none":        "",
}

func timeFormatter(layout string) func(time.Time) string {
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if std, ok := namedLayout[key]; ok {
		layout = std
	}

	if strings.TrimSpace(layout) == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
