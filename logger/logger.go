package logger

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger interface is used to allow tests to inject custom loggers.
type Logger interface {
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debug(...interface{})
	Warn(...interface{})
	Info(...interface{})
	SetWriter(io.Writer)
}

type logger struct {
	*log.Logger
}

// NewLogger returns a new Logger instance backed by Logrus. Output goes to
// stderr so that stdout only carries tokens and decrypted messages.
func NewLogger(level uint32) Logger {
	l := log.New()
	l.SetLevel(log.Level(level))
	l.Out = os.Stderr
	logFormatter := &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	l.Formatter = logFormatter
	return &logger{l}
}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger {
	l := log.New()
	l.Out = io.Discard
	return &logger{l}
}

func (l *logger) SetWriter(writer io.Writer) {
	l.Out = writer
}
