// Package log is the structured logger shared by every stage of resgen.
//
// It wraps [log/slog] with a fixed set of levels (including [LevelTrace]),
// typed attribute arguments, and configuration applied through functional
// options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//	logger.Warn("duplicate resource",
//		slog.String("kind", "string"),
//		slog.String("name", "app_name"))
//
// Pipeline components accept a [Logger] through their own options and fall
// back to [Nop], so library use never writes output unless asked to.
// The command-line tool configures the package-level logger with [Config].
package log
