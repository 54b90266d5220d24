package platform

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Environment variables bound to the logging flags.
const (
	EnvLogLevel  = "TCPRICE_LOG_LEVEL"
	EnvLogFormat = "TCPRICE_LOG_FORMAT"
)

// LogConfig selects logger level and output encoding.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// InitLogger builds a zerolog logger writing to out, tagged with a fresh run_id.
func InitLogger(out io.Writer, cfg LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", cfg.Level)
	}

	var w io.Writer
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: out, NoColor: true}
	case "json":
		w = out
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", cfg.Format)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
	return logger, nil
}
