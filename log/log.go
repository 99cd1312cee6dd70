// Package log provides structured logging with filesystem-based persistence.
//
// Every emission is a no-op unless logs.write is enabled, so core packages may log freely.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// enabled indicates the persistent logging state for the active application instance.
var enabled bool

// Fields is a set of structured key/value pairs attached to an entry.
type Fields = logrus.Fields

// Setup opens today's log file and configures format and level from the global configuration.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	configure(f)
	return nil
}

// SetOutput enables logging to w with the configured format. Used by tests and the debug flag.
func SetOutput(w io.Writer) {
	enabled = true
	configure(w)
}

func configure(w io.Writer) {
	logrus.SetOutput(w)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{PrettyPrint: true})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// Entry is a log entry carrying structured fields.
type Entry struct {
	e *logrus.Entry
}

// WithFields returns an entry that attaches fields to every emission.
func WithFields(fields Fields) Entry {
	return Entry{e: logrus.WithFields(fields)}
}

func (l Entry) Errorf(format string, args ...any) {
	if enabled {
		l.e.Errorf(format, args...)
	}
}

func (l Entry) Warnf(format string, args ...any) {
	if enabled {
		l.e.Warnf(format, args...)
	}
}

func (l Entry) Infof(format string, args ...any) {
	if enabled {
		l.e.Infof(format, args...)
	}
}

func (l Entry) Debugf(format string, args ...any) {
	if enabled {
		l.e.Debugf(format, args...)
	}
}

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
