package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	dev := New("development", false)
	assert.NotNil(t, dev)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod := New("production", false)
	assert.NotNil(t, prod)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	prodDebug := New("production", true)
	assert.True(t, prodDebug.Core().Enabled(zapcore.DebugLevel))
}
