package logging

import (
	"fmt"
	"strings"
)

// Leveled adapts Logger to the key/value leveled logger interface expected by
// go-retryablehttp.
type Leveled struct {
	logger *Logger
}

// NewLeveled wraps logger. A nil logger discards everything.
func NewLeveled(logger *Logger) *Leveled {
	return &Leveled{logger: logger}
}

func (l *Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error("%s", formatKV(msg, keysAndValues))
}

func (l *Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warning("%s", formatKV(msg, keysAndValues))
}

func (l *Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.logger.InfoVerbose("%s", formatKV(msg, keysAndValues))
}

func (l *Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("%s", formatKV(msg, keysAndValues))
}

func formatKV(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v", keysAndValues[i])
		}
	}
	return b.String()
}
