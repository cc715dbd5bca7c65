// Package log builds the structured logger shared by the driver and
// server packages. It never touches internal/sched: the core stays a
// pure, logger-free state machine per §5.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus entry pre-tagged with the scheduler's run
// configuration, formatted as JSON so the driver's stderr stream stays
// machine-parseable alongside the socket's own JSON traffic.
func New(socket string, cpus int, quanta int64, metadata bool) *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(levelFromEnv())
	l.SetOutput(os.Stderr)

	return l.WithFields(logrus.Fields{
		"socket":   socket,
		"cpus":     cpus,
		"quanta":   quanta,
		"metadata": metadata,
	})
}

func levelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
