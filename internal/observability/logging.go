package observability

import (
	"fmt"
	"strings"

	"github.com/hhkbp2/go-logging"
)

// LoggerName is the go-logging logger shared by the library, CLI and server.
const LoggerName = "aquaox"

// SetLogLevel sets the level of the aquaox logger from its name
// (DEBUG, INFO, WARN, ERROR or CRITICAL, case-insensitive).
func SetLogLevel(level string) error {
	logger := logging.GetLogger(LoggerName)
	switch strings.ToUpper(level) {
	case "DEBUG":
		logger.SetLevel(logging.LevelDebug)
	case "INFO":
		logger.SetLevel(logging.LevelInfo)
	case "WARN":
		logger.SetLevel(logging.LevelWarn)
	case "ERROR":
		logger.SetLevel(logging.LevelError)
	case "CRITICAL":
		logger.SetLevel(logging.LevelCritical)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}
