// Package logger builds the logrus loggers used across quant-edge and the
// run and audit helpers layered on them.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options controls how New configures a logger.
type Options struct {
	Level string
	// JSON selects the JSON formatter; otherwise timestamps are rendered as text.
	JSON bool
	// Output defaults to stdout.
	Output io.Writer
}

// New builds a logger from opts. An unknown level falls back to info.
func New(opts Options) *logrus.Logger {
	log := logrus.New()
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stdout)
	}

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		log.WithField("requested", opts.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	return New(Options{Level: "panic", Output: io.Discard})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
