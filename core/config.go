package core

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the process-wide settings, read from the environment.
type Config struct {
	Addr          string // listen address of the RPC server
	MaxImageBytes int64  // upper bound for a single source read
	LogLevel      string
	LogFormat     string // "console" or "json"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadConfig reads SHOTMETA_* variables, falling back to defaults for
// anything unset or unparsable.
func LoadConfig() Config {
	maxMB, err := strconv.Atoi(getenv("SHOTMETA_MAX_IMAGE_MB", "25"))
	if err != nil || maxMB <= 0 {
		maxMB = 25
	}
	return Config{
		Addr:          getenv("SHOTMETA_ADDR", ":8080"),
		MaxImageBytes: int64(maxMB) << 20,
		LogLevel:      strings.ToLower(getenv("SHOTMETA_LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getenv("SHOTMETA_LOG_FORMAT", "console")),
	}
}

// NewLogger builds the root logger for cfg, writing to w.
func NewLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
