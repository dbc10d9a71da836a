// Package logging configures the process wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const serviceName = "fincore-authz"

var (
	logger = newLogger()
	mu     sync.Mutex
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{}
	l.AddHook(&serviceHook{})
	return l
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

// Configure sets the level and format ("text" or "json") of the shared logger.
func Configure(level, format string) error {
	mu.Lock()
	defer mu.Unlock()

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(lvl)
	}

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// FromEnv applies AUTHZ_LOG_LEVEL and AUTHZ_LOG_FORMAT, falling back to
// the given format when the variable is unset.
func FromEnv(defaultFormat string) error {
	format := os.Getenv("AUTHZ_LOG_FORMAT")
	if format == "" {
		format = defaultFormat
	}
	return Configure(os.Getenv("AUTHZ_LOG_LEVEL"), format)
}

// SetOutput redirects the shared logger, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

type serviceHook struct{}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = serviceName
	}
	return nil
}
