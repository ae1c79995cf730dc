package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	if NewLogger(false).Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected the no-op logger when debug is off")
	}
	log := NewLogger(true)
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled when debug is on")
	}
	_ = log.Sync()
}
