package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON slog handler on stdout as the default logger.
func Setup(level string) {
	SetupWriter(os.Stdout, level)
}

// SetupWriter is Setup with an explicit destination. The CLI logs to stderr so
// chat output on stdout stays readable.
func SetupWriter(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	slog.SetDefault(slog.New(handler))
}

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
