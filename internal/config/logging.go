package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// SetVerbosity installs the default logger. Each level of verbosity lowers
// the threshold: error, warn, info, debug.
func SetVerbosity(verbose int) {
	SetLogger(os.Stderr, verbose)
}

// SetLogger installs a text logger writing to w.
func SetLogger(w io.Writer, verbose int) {
	levels := []slog.Level{
		slog.LevelError,
		slog.LevelWarn,
		slog.LevelInfo,
		slog.LevelDebug,
	}
	level := levels[max(0, min(verbose, len(levels)-1))]

	logger := slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == "source" {
					if source, ok := a.Value.Any().(*slog.Source); ok {
						dir, file := filepath.Split(source.File)
						source.File = filepath.Join(filepath.Base(filepath.Clean(dir)), file)

						return slog.Attr{Key: "source", Value: slog.AnyValue(source)}
					}
				}

				return a
			},
		}),
	)
	slog.SetDefault(logger)

	slog.Debug("logging", "level", level)
}
