package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f := &Formatter{TimestampFormat: time.RFC3339}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "No WKT record",
		Data:    logrus.Fields{"rows": 11, "input": "/data/my scan.las", "run": "abc"},
	}

	b, err := f.Format(entry)

	require.NoError(t, err)
	assert.Equal(t, `[2024-03-01T12:30:00Z] [WARN] No WKT record input="/data/my scan.las" rows=11 run=abc`+"\n", string(b))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.WithField("n", 2).Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[ERRO] shown n=2\n")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logrus.Level{
		"":        logrus.InfoLevel,
		"DEBUG":   logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := New("loud", nil)
	assert.Error(t, err)
}
