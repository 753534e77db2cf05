package subtitle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

// segment list with ids, confidence and video ids intact
type JSONWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Shabd Segmented Subtitles",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	var sb strings.Builder
	for i, entry := range sub.Entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatClock(entry.StartTime, ','),
			formatClock(entry.EndTime, ','),
			entry.Text)
	}
	return writeFile(path, sb.String())
}

func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, entry := range sub.Entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatClock(entry.StartTime, '.'),
			formatClock(entry.EndTime, '.'),
			entry.Text)
	}
	return writeFile(path, sb.String())
}

func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	fmt.Fprintf(&sb, "Title: %s\n", w.Title)
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, entry := range sub.Entries {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.EndTime),
			strings.ReplaceAll(entry.Text, "\n", "\\N"))
	}

	return writeFile(path, sb.String())
}

// writes the source segments as indented JSON
func (w *JSONWriter) Write(sub *Subtitle, path string) error {
	segments := sub.Segments
	if segments == nil {
		segments = []Segment{}
	}

	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	return writeFile(path, string(data)+"\n")
}

// hh:mm:ss<sep>mmm, shared by SRT (',') and VTT ('.')
func formatClock(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3_600_000, ms/60_000%60, ms/1000%60, sep, ms%1000)
}

func formatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360_000, cs/6000%60, cs/100%60, cs%100)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// parses a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "srt", "":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, ass, or json", name)
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatJSON:
		return ".segments.json"
	default:
		return ".srt"
	}
}
