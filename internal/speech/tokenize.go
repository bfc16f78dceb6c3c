package speech

import (
	"strings"
	"unicode"
)

// maxPieceLen is the longest text the endpoint accepts per request.
const maxPieceLen = 100

// Tokenize splits text into pieces of at most max code points, preferring
// to cut after punctuation, then at whitespace, and hard-cutting only when
// a piece has neither. Pieces without any letter or digit are dropped.
func Tokenize(text string, max int) []string {
	var out []string
	runes := []rune(strings.TrimSpace(text))
	for len(runes) > 0 {
		if len(runes) <= max {
			out = appendSpeakable(out, string(runes))
			break
		}

		cut := lastBreak(runes[:max+1])
		if cut <= 0 {
			cut = max
		}
		out = appendSpeakable(out, string(runes[:cut]))
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	return out
}

// lastBreak returns the cut position after the last punctuation mark, or
// at the last space when the window has no punctuation.
func lastBreak(window []rune) int {
	space := -1
	for i := len(window) - 1; i > 0; i-- {
		r := window[i]
		if isBreakPunct(r) && i < len(window)-1 {
			return i + 1
		}
		if space < 0 && unicode.IsSpace(r) {
			space = i
		}
	}
	return space
}

func isBreakPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '¿', '¡', '…', '、', '。', '，', '：', '؟', '\n':
		return true
	}
	return false
}

func appendSpeakable(out []string, piece string) []string {
	piece = strings.TrimSpace(piece)
	for _, r := range piece {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return append(out, piece)
		}
	}
	return out
}
