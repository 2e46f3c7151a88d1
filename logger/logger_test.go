package logger

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(uint32(log.DebugLevel))
	require.NotNil(t, l)

	// These should not panic
	l.SetWriter(&bytes.Buffer{})
	l.Debug("test debug")
	l.Info("test info")
	l.Warn("test warn")
	l.Debugf("test %s", "debugf")
	l.Infof("test %s", "infof")
	l.Warnf("test %s", "warnf")
	l.Errorf("test %s", "errorf")
}

func TestLoggerLevelFilters(t *testing.T) {
	l := NewLogger(uint32(log.InfoLevel))
	var buf bytes.Buffer
	l.SetWriter(&buf)

	l.Debug("hidden")
	l.Info("shown")

	output := buf.String()
	require.False(t, strings.Contains(output, "hidden"))
	require.True(t, strings.Contains(output, "shown"))
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Info("nothing")
	l.Errorf("nothing %d", 1)
}
