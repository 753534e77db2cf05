package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when the input is not valid JSON.
var ErrMalformed = errors.New("malformed transcript JSON")

// provider timestamps arrive in milliseconds
const msPerSecond = 1000.0

// Parse reads provider output in one of three shapes:
//
//	{"utterances": [{"text", "start", "end", "confidence"}, ...]}
//	{"words":      [{"text", "start", "end", "confidence"}, ...]}
//	{"text": "..."}
//
// Start and end are milliseconds and are converted to seconds. A non-empty
// utterances array wins over words, and words over text. Input carrying none
// of them yields an empty FlatText rather than an error.
func Parse(data []byte) (Transcript, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return FlatText(""), nil
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformed)
	}

	if utts := root.Get("utterances"); utts.IsArray() && len(utts.Array()) > 0 {
		return UtteranceTokens(parseTokens(utts)), nil
	}
	if words := root.Get("words"); words.IsArray() && len(words.Array()) > 0 {
		return WordTokens(parseTokens(words)), nil
	}

	return FlatText(root.Get("text").String()), nil
}

func parseTokens(arr gjson.Result) []Token {
	items := arr.Array()
	tokens := make([]Token, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		conf := 1.0
		if c := item.Get("confidence"); c.Exists() {
			conf = clampConfidence(c.Float())
		}
		tokens = append(tokens, Token{
			Text:       item.Get("text").String(),
			Start:      item.Get("start").Float() / msPerSecond,
			End:        item.Get("end").Float() / msPerSecond,
			Confidence: conf,
		})
	}
	return tokens
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// wire form used by Marshal, mirroring what Parse accepts
type rawToken struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type rawTranscript struct {
	Utterances []rawToken `json:"utterances,omitempty"`
	Words      []rawToken `json:"words,omitempty"`
	Text       string     `json:"text,omitempty"`
}

// Marshal encodes t in the millisecond JSON shape that Parse reads.
func Marshal(t Transcript) ([]byte, error) {
	var raw rawTranscript
	switch v := t.(type) {
	case WordTokens:
		raw.Words = toRaw(v)
	case UtteranceTokens:
		raw.Utterances = toRaw(v)
	case FlatText:
		raw.Text = string(v)
	default:
		return nil, fmt.Errorf("unsupported transcript type %T", t)
	}
	return json.MarshalIndent(raw, "", "  ")
}

func toRaw(tokens []Token) []rawToken {
	out := make([]rawToken, len(tokens))
	for i, tok := range tokens {
		out[i] = rawToken{
			Text:       tok.Text,
			Start:      secondsToMillis(tok.Start),
			End:        secondsToMillis(tok.End),
			Confidence: tok.Confidence,
		}
	}
	return out
}

func secondsToMillis(s float64) int64 {
	ms := s * msPerSecond
	if ms < 0 {
		return int64(ms - 0.5)
	}
	return int64(ms + 0.5)
}
