package migrate

import (
	"io"

	"github.com/sirupsen/logrus"
)

// ensureLogger lets callers pass a nil logger (tests mostly) without every
// service nil-checking at each call site.
func ensureLogger(log *logrus.Logger) *logrus.Logger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
