package logs

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewAppliesLevelAndFormat(t *testing.T) {
	l := New(Options{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	assert.Equal(t, logrus.InfoLevel, New(Options{Level: "bogus"}).GetLevel())
	assert.Equal(t, logrus.WarnLevel, New(Options{Level: "warn"}).GetLevel())
}

func TestNewRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{})
	l.SetOutput(&buf)
	l.Infof("connecting with secret=%s to %s", "topsecret", "10.1.2.3")

	assert.NotContains(t, buf.String(), "topsecret")
	assert.NotContains(t, buf.String(), "10.1.2.3")
}

func TestInitReplacesGlobal(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	assert.NoError(t, Init(Options{Level: "error"}))
	assert.NotSame(t, prev, Logger)
	assert.Equal(t, logrus.ErrorLevel, Logger.GetLevel())
}
