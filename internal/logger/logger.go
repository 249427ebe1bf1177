package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config holds the configuration for the logger.
type Config struct {
	Level  string
	Output string // "stdout", "stderr", or a file path
	Pretty bool   // Enable pretty logging for development
}

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(cfg Config) {
	once.Do(func() {
		level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var output io.Writer
		switch cfg.Output {
		case "", "stdout":
			output = os.Stdout
		case "stderr":
			output = os.Stderr
		default:
			file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				output = os.Stdout
			} else {
				output = file
			}
		}

		if cfg.Pretty {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: "2006-01-02 15:04:05",
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
		zerolog.DefaultContextLogger = &logger
	})
}

// Get returns the global logger instance.
func Get() *zerolog.Logger {
	return &logger
}

// Debug starts a debug-level event on the global logger.
func Debug() *zerolog.Event { return logger.Debug() }

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { return logger.Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { return logger.Warn() }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { return logger.Error() }
