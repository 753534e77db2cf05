package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shabd.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(Default(), *cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.Output.Format != "srt" {
		t.Errorf("default format = %q, want srt", cfg.Output.Format)
	}
	if cfg.Translate.TargetLanguage != "" {
		t.Errorf("translation enabled by default: %q", cfg.Translate.TargetLanguage)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
[optimize]
split_long_segments = false
max_segment_length_chars = 80

[output]
format = "vtt"
language = "es"

[translate]
provider = "anthropic"
target_language = "japanese"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := Default()
	want.Optimize.SplitLongSegments = false
	want.Optimize.MaxSegmentLengthChars = 80
	want.Output = Output{Format: "vtt", Language: "es"}
	want.Translate.Provider = "anthropic"
	want.Translate.TargetLanguage = "japanese"

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.toml")
			},
		},
		{
			name: "invalid toml",
			path: func(t *testing.T) string {
				return writeConfig(t, "[optimize\nfix_timing = ")
			},
		},
		{
			name: "unknown key",
			path: func(t *testing.T) string {
				return writeConfig(t, "[optimize]\nmerge_everything = true\n")
			},
		},
		{
			name: "unknown format",
			path: func(t *testing.T) string {
				return writeConfig(t, "[output]\nformat = \"docx\"\n")
			},
		},
		{
			name: "unknown translation provider",
			path: func(t *testing.T) string {
				return writeConfig(t, "[translate]\nprovider = \"babelfish\"\n")
			},
		},
		{
			name: "zero batch size",
			path: func(t *testing.T) string {
				return writeConfig(t, "[translate]\nbatch_size = 0\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Optimize.MinSegmentDurationSecs = 1.5

	data, err := Encode(cfg)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	var got Config
	if err := toml.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode encoded config: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
