// Package llmjson pulls structured JSON out of free-form model replies.
// Models wrap the payload in prose, code fences or an object under an
// arbitrary key; FindArray tries every JSON value in the text in order.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// Clean removes markdown code fences and surrounding whitespace.
func Clean(s string) string {
	s = strings.TrimSpace(s)

	// remove ```json and ``` markers
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// FixInvalidEscapes doubles backslashes that do not start a valid JSON
// escape, so subtitle markup like \N survives parsing as a literal.
func FixInvalidEscapes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			sb.WriteByte(s[i])
			continue
		}

		next := s[i+1]
		switch next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			sb.WriteByte('\\')
		default:
			sb.WriteString("\\\\")
		}
		sb.WriteByte(next)
		i++
	}

	return sb.String()
}

// FindArray returns the first array accepted by accept, either a top-level
// JSON value in text or one nested in an object's values. Values that fail
// to parse are skipped.
func FindArray(text string, accept func(gjson.Result) bool) (gjson.Result, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}

		if arr, ok := search(gjson.ParseBytes(raw), accept); ok {
			return arr, true
		}
		i += int(dec.InputOffset()) - 1
	}
	return gjson.Result{}, false
}

func search(v gjson.Result, accept func(gjson.Result) bool) (gjson.Result, bool) {
	switch {
	case v.IsArray():
		if accept(v) {
			return v, true
		}
	case v.IsObject():
		var (
			found gjson.Result
			ok    bool
		)
		v.ForEach(func(_, value gjson.Result) bool {
			found, ok = search(value, accept)
			return !ok
		})
		return found, ok
	}
	return gjson.Result{}, false
}

// ObjectsWithAny reports whether arr is a non-empty array of objects where
// at least one object carries one of keys.
func ObjectsWithAny(arr gjson.Result, keys ...string) bool {
	items := arr.Array()
	if len(items) == 0 {
		return false
	}

	keyed := false
	for _, item := range items {
		if !item.IsObject() {
			return false
		}
		for _, key := range keys {
			if item.Get(key).Exists() {
				keyed = true
			}
		}
	}
	return keyed
}

// Truncate shortens s to maxLen bytes for error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
