package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *zapcore.Level
	}{
		{name: "debug", input: "debug", want: levelPtr(zapcore.DebugLevel)},
		{name: "info", input: "info", want: levelPtr(zapcore.InfoLevel)},
		{name: "warn", input: "warn", want: levelPtr(zapcore.WarnLevel)},
		{name: "error", input: "error", want: levelPtr(zapcore.ErrorLevel)},
		{name: "upper case", input: "WARN", want: levelPtr(zapcore.WarnLevel)},
		{name: "unknown keeps default", input: "verbose", want: nil},
		{name: "fatal is not a config level", input: "fatal", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLevel(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func TestWithStampsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With(String("owner", "user-1"))

	log.Warn("signal dropped", Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["owner"] != "user-1" {
		t.Errorf("owner field = %v, want user-1", ctx["owner"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error field = %v, want boom", ctx["error"])
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	log := Nop()
	log.Info("ignored")
	log.Debugf("ignored %d", 1)
	_ = log.Sync()
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }
