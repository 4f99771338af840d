package common

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// duidLogger writes "LEVEL | name | message" lines
type duidLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *duidLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *duidLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *duidLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *duidLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *duidLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *duidLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *duidLogger) log(levelStr string, format string, args ...interface{}) {
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

// CreateLogger is the logger.Factory installed by InitLoggers
func CreateLogger(pkgName string) logger.ILogger {
	return &duidLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
	}
}

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// dragonboatLoggers are the named loggers of the raft library
var dragonboatLoggers = []string{"raft", "raftdb", "rsm", "transport", "dragonboat", "grpc", "util", "logdb"}

// duidLoggers are the named loggers of this module. The audit trail is
// written with Errorf and stays visible at every level.
var duidLoggers = []string{"store", "seq", "alloc", "persist", "rpc", "transport/rpc"}

// InitLoggers installs the custom logger factory and sets the level of all named loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range dragonboatLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	for _, name := range duidLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
