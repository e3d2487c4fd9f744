package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/protover/config"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "PROTOVER_LOG_LEVEL"
	EnvLogNoColor = "PROTOVER_LOG_NOCOLOR"
	EnvLogJSON    = "PROTOVER_LOG_JSON"
)

// New builds the process logger. Environment variables take precedence over the config.
func New(app string, cfg config.Log) zerolog.Logger {
	return NewWithOutput(os.Stdout, app, applyEnvOverrides(cfg))
}

func NewWithOutput(out io.Writer, app string, cfg config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}

func applyEnvOverrides(cfg config.Log) config.Log {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}

	return cfg
}

func parseLevel(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", false
	case "trace":
		return "trace", true
	case "debug":
		return "debug", true
	case "info":
		return "info", true
	case "warn", "warning":
		return "warn", true
	case "error":
		return "error", true
	case "disabled", "disable", "off", "none":
		return "disabled", true
	default:
		return "", false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
