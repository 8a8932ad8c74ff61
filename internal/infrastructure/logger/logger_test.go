package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestNewBuildsConsoleAndJSON(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New(config.LoggerConfig{Level: "debug", Format: format, Output: "stdout"})
		require.NoError(t, err, format)
		l.WithComponent("test").Debugw("hello", "format", format)
	}
}

func TestNopLoggerAcceptsEverything(t *testing.T) {
	l := NewNop().WithComponent("runner").WithRequestID("abc")
	l.LogJobRun("cleanup", "1", time.Millisecond, nil)
	l.WithError(errors.New("boom")).LogJobRun("cleanup", "2", time.Millisecond, errors.New("boom"))
	assert.NoError(t, l.Close())
}
