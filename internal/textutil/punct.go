// Package textutil holds the punctuation and casing checks shared by the
// segmenter and the optimizer.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	Terminal = ".!?"
	Clause   = ":;"
)

// EndsWithAny reports whether the last non-space rune of text is in set.
func EndsWithAny(text, set string) bool {
	r, size := utf8.DecodeLastRuneInString(strings.TrimSpace(text))
	return size > 0 && strings.ContainsRune(set, r)
}

func EndsWithTerminal(text string) bool {
	return EndsWithAny(text, Terminal)
}

func EndsWithClause(text string) bool {
	return EndsWithAny(text, Clause)
}

// StartsUpper reports whether the first non-space rune of text is uppercase.
func StartsUpper(text string) bool {
	r, size := utf8.DecodeRuneInString(strings.TrimSpace(text))
	return size > 0 && unicode.IsUpper(r)
}

// IsBlank reports whether text is only punctuation and whitespace. Symbols
// such as ♪ or $ count as content.
func IsBlank(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsPunct(r) && !unicode.IsSpace(r)
	}) < 0
}

func Len(text string) int {
	return utf8.RuneCountInString(text)
}
