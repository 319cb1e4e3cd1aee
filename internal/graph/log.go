package graph

import "github.com/sirupsen/logrus"

// leveledLogger routes retryablehttp logging into logrus.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.entry(kv).Error(msg) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.entry(kv).Warn(msg) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.entry(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.entry(kv).Debug(msg) }

func (l leveledLogger) entry(kv []any) logrus.FieldLogger {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return l.log.WithFields(fields)
}
