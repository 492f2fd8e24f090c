package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Options controls logger initialization. Built once from configuration and
// never mutated afterwards.
type Options struct {
	Level      string
	Format     string // "console" or "json"
	OutputPath string // "stdout", "stderr" or a file path
	Debug      bool   // show source location on all levels, not just warn/error
}

var (
	defaultLogger *slog.Logger
	atomicLevel   *slog.LevelVar
)

func Init(opts Options) error {
	atomicLevel = new(slog.LevelVar)
	atomicLevel.Set(parseLevel(opts.Level))

	var writer io.Writer
	switch strings.ToLower(opts.OutputPath) {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		file, err := os.OpenFile(opts.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writer = file
	}

	// warn and error carry source location; debug and info stay lean
	showSourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if opts.Debug {
		showSourceLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	}

	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		baseHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     atomicLevel,
			AddSource: false,
		})
		handler = NewConditionalSourceHandler(baseHandler, showSourceLevels...)
	} else {
		baseHandler := tint.NewHandler(writer, tintOptions(atomicLevel, !isTerminal(writer)))
		handler = NewConditionalSourceHandler(baseHandler, showSourceLevels...)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func tintOptions(level slog.Leveler, noColor bool) *tint.Options {
	return &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		AddSource:  false,
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func SetLevel(level slog.Level) {
	if atomicLevel != nil {
		atomicLevel.Set(level)
	}
}

func Get() *slog.Logger {
	if defaultLogger == nil {
		baseHandler := tint.NewHandler(os.Stdout, tintOptions(slog.LevelInfo, !isTerminal(os.Stdout)))
		handler := NewConditionalSourceHandler(baseHandler, slog.LevelWarn, slog.LevelError)
		defaultLogger = slog.New(handler)
		slog.SetDefault(defaultLogger)
	}
	return defaultLogger
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}
