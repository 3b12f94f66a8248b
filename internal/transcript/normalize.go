// Package transcript normalizes recognized answer text and renders the
// readable session transcript.
package transcript

import (
	"strings"
	"unicode"
)

// Normalize collapses whitespace and capitalizes sentence starts in raw ASR
// output. Recognizers return lowercase run-together text for short answers;
// the evaluation service scores the text as-is, so clean it up first.
func Normalize(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return ""
	}
	return capitalizeSentenceStarts(collapsed)
}

// capitalizeSentenceStarts uppercases the first letter of the text and the
// first letter after terminal punctuation followed by a space.
func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	capitalizeNext := true
	for i, r := range runes {
		if capitalizeNext && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			capitalizeNext = false
		} else if capitalizeNext && unicode.IsDigit(r) {
			capitalizeNext = false
		}

		out.WriteRune(r)

		switch r {
		case '.', '!', '?':
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				capitalizeNext = true
			}
		}
	}

	return out.String()
}
