package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// hours are optional in VTT; SRT separates millis with a comma
	cueTimingRegex = regexp.MustCompile(
		`(?:(\d{1,2}):)?(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(?:(\d{1,2}):)?(\d{2}):(\d{2})[,.](\d{3})`,
	)
	markupTagRegex   = regexp.MustCompile(`<[^>]*>`)
	assOverrideRegex = regexp.MustCompile(`\{[^}]*\}`)
)

// IsSubtitleFile reports whether path has an extension Open can read.
func IsSubtitleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt", ".ass", ".ssa":
		return true
	default:
		return false
	}
}

// Open reads the cues of an SRT, VTT or ASS/SSA file. Markup and override
// tags are stripped; line breaks inside a cue become "\n".
func Open(path string) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSubtitleFile(path) {
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	switch ext {
	case ".ass", ".ssa":
		return parseASS(file)
	default:
		return parseCues(file)
	}
}

// parseCues reads SRT and VTT, which share a blank-line separated block
// layout. Lines before the timing line (cue numbers, ids) are ignored, as
// are blocks without one (WEBVTT header, NOTE, STYLE).
func parseCues(r io.Reader) ([]Entry, error) {
	var entries []Entry
	var current *Entry
	var textLines []string

	flush := func() {
		if current != nil {
			if text := strings.TrimSpace(strings.Join(textLines, "\n")); text != "" {
				current.Text = text
				current.Index = len(entries) + 1
				entries = append(entries, *current)
			}
		}
		current = nil
		textLines = nil
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			matches := cueTimingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			start, err := cueTimestamp(matches[1:5])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := cueTimestamp(matches[5:9])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			current = &Entry{StartTime: start, EndTime: end}
			continue
		}

		textLines = append(textLines, strings.TrimSpace(markupTagRegex.ReplaceAllString(line, "")))
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading subtitle file: %w", err)
	}
	return entries, nil
}

// hours, minutes, seconds, millis; hours may be empty
func cueTimestamp(parts []string) (time.Duration, error) {
	values := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}

	return time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second +
		time.Duration(values[3])*time.Millisecond, nil
}

// parseASS reads Dialogue lines from the [Events] section using the
// columns named by its Format line.
func parseASS(r io.Reader) ([]Entry, error) {
	var entries []Entry
	var columns []string
	inEvents := false

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[events]")
			continue
		}
		if !inEvents {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Format:"):
			columns = strings.Split(strings.TrimPrefix(line, "Format:"), ",")
			for i, col := range columns {
				columns[i] = strings.ToLower(strings.TrimSpace(col))
			}
		case strings.HasPrefix(line, "Dialogue:"):
			if columns == nil {
				return nil, fmt.Errorf("dialogue before Format line at line %d", lineNum)
			}
			entry, err := parseASSDialogue(strings.TrimPrefix(line, "Dialogue:"), columns)
			if err != nil {
				return nil, fmt.Errorf("failed to parse Dialogue at line %d: %w", lineNum, err)
			}
			if entry.Text != "" {
				entry.Index = len(entries) + 1
				entries = append(entries, entry)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if columns == nil {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}
	return entries, nil
}

func parseASSDialogue(content string, columns []string) (Entry, error) {
	// the text column is last and may itself contain commas
	fields := strings.SplitN(strings.TrimSpace(content), ",", len(columns))
	if len(fields) < len(columns) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(columns), len(fields))
	}

	var entry Entry
	for i, col := range columns {
		value := strings.TrimSpace(fields[i])
		switch col {
		case "start":
			t, err := parseASSTimestamp(value)
			if err != nil {
				return Entry{}, err
			}
			entry.StartTime = t
		case "end":
			t, err := parseASSTimestamp(value)
			if err != nil {
				return Entry{}, err
			}
			entry.EndTime = t
		case "text":
			text := assOverrideRegex.ReplaceAllString(fields[i], "")
			text = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(text)
			entry.Text = strings.TrimSpace(text)
		}
	}
	return entry, nil
}

// H:MM:SS.cc
func parseASSTimestamp(ts string) (time.Duration, error) {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}

	var values [4]int
	for i, p := range []string{parts[0], parts[1], secParts[0], secParts[1]} {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid ASS timestamp %q: %w", ts, err)
		}
		values[i] = v
	}

	return time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second +
		time.Duration(values[3])*10*time.Millisecond, nil
}
