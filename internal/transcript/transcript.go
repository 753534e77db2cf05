// Package transcript holds the token model produced by speech recognition
// providers and the adapter that turns their JSON output into it.
package transcript

import "strings"

// Token is one timestamped unit of recognized text: a single word or a
// pre-grouped utterance. Times are in seconds.
type Token struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

func (t Token) Duration() float64 {
	return t.End - t.Start
}

// Transcript is one of WordTokens, UtteranceTokens or FlatText.
type Transcript interface {
	isTranscript()
}

// per-word tokens
type WordTokens []Token

// tokens already grouped into phrases, usually by speaker turn
type UtteranceTokens []Token

// plain transcript text with no timing information
type FlatText string

func (WordTokens) isTranscript()      {}
func (UtteranceTokens) isTranscript() {}
func (FlatText) isTranscript()        {}

// Tokens returns the timed tokens of t, or nil for FlatText.
func Tokens(t Transcript) []Token {
	switch v := t.(type) {
	case WordTokens:
		return v
	case UtteranceTokens:
		return v
	default:
		return nil
	}
}

// Text joins the token texts of t with single spaces.
func Text(t Transcript) string {
	switch v := t.(type) {
	case FlatText:
		return string(v)
	default:
		var sb strings.Builder
		for i, tok := range Tokens(t) {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(tok.Text)
		}
		return sb.String()
	}
}

// Kind names the variant of t for logs.
func Kind(t Transcript) string {
	switch t.(type) {
	case WordTokens:
		return "words"
	case UtteranceTokens:
		return "utterances"
	case FlatText:
		return "text"
	default:
		return "unknown"
	}
}
