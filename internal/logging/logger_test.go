package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet logger drops debug", false, false},
		{"verbose logger keeps debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(tt.verbose)
			defer l.Close()

			got := l.Desugar().Core().Enabled(zap.DebugLevel)
			if got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("input", "talk.json").Infow("segmented", "segments", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["input"] != "talk.json" {
		t.Errorf("input = %v, want talk.json", fields["input"])
	}
	if fields["segments"] != int64(3) {
		t.Errorf("segments = %v (%T), want 3", fields["segments"], fields["segments"])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Infow("ignored", "k", "v")
	if l.Desugar().Core().Enabled(zap.ErrorLevel) {
		t.Error("nop logger should not enable any level")
	}
}
