// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	EnvLogLevel   = "GRAPHSYNC_LOG_LEVEL"
	EnvLogNoColor = "GRAPHSYNC_LOG_NOCOLOR"
)

var configureOnce sync.Once

// Configure sets up the standard logger once. level is used unless
// GRAPHSYNC_LOG_LEVEL overrides it. Subsequent calls are no-ops.
func Configure(level string, out io.Writer) *logrus.Logger {
	configureOnce.Do(func() {
		apply(logrus.StandardLogger(), level, out)
	})
	return logrus.StandardLogger()
}

// New returns a standalone logger configured the same way as Configure.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	apply(l, level, out)
	return l
}

func apply(l *logrus.Logger, level string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	formatter := &logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok && v {
		formatter.DisableColors = true
	}
	l.SetFormatter(formatter)

	lvl, ok := ParseLevel(os.Getenv(EnvLogLevel))
	if !ok {
		lvl, ok = ParseLevel(level)
	}
	if !ok {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
}

// ParseLevel accepts logrus level names plus "off" and a few aliases.
func ParseLevel(raw string) (logrus.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return logrus.InfoLevel, false
	case "trace":
		return logrus.TraceLevel, true
	case "debug":
		return logrus.DebugLevel, true
	case "info":
		return logrus.InfoLevel, true
	case "warn", "warning":
		return logrus.WarnLevel, true
	case "error":
		return logrus.ErrorLevel, true
	case "off", "disabled", "none":
		return logrus.PanicLevel, true
	default:
		return logrus.InfoLevel, false
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
