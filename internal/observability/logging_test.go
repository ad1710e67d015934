package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/tutoring-portal/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"INFO", false},
		{"chatty", false},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger, err := NewLogger(config.LoggerConfig{Level: tc.level, Format: "console", Service: "portal", Version: "dev"})
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.wantDebug {
				t.Fatalf("debug enabled = %v, want %v", got, tc.wantDebug)
			}
		})
	}
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger(config.LoggerConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
