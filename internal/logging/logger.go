package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// SLIDE_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// SLIDE_LOG_FORMAT=json switches from the console writer to plain JSON lines,
// which is what CloudWatch expects from the Lambda build.
//
// Logs always go to stderr so stdout stays free for command output and MCP traffic.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("SLIDE_LOG_LEVEL")))

	if strings.EqualFold(os.Getenv("SLIDE_LOG_FORMAT"), "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
