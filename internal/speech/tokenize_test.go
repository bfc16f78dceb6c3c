package speech

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Short(t *testing.T) {
	assert.Equal(t, []string{"Hello there."}, Tokenize("  Hello there.  ", 100))
}

func TestTokenize_PrefersPunctuation(t *testing.T) {
	text := "First sentence here, then more words follow without any stop"
	pieces := Tokenize(text, 30)
	require.NotEmpty(t, pieces)
	assert.Equal(t, "First sentence here,", pieces[0])
	assert.Equal(t, text, joinLoose(pieces))
}

func TestTokenize_FallsBackToSpace(t *testing.T) {
	pieces := Tokenize("aaaa bbbb cccc", 9)
	assert.Equal(t, []string{"aaaa bbbb", "cccc"}, pieces)
}

func TestTokenize_HardCut(t *testing.T) {
	pieces := Tokenize(strings.Repeat("x", 250), 100)
	require.Len(t, pieces, 3)
	assert.Len(t, pieces[0], 100)
	assert.Len(t, pieces[2], 50)
}

func TestTokenize_RespectsLimit(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 40)
	for _, p := range Tokenize(text, 100) {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 100)
	}
}

func TestTokenize_DropsPunctuationOnly(t *testing.T) {
	assert.Empty(t, Tokenize("... !!! ???", 100))
}

func joinLoose(pieces []string) string {
	return strings.Join(pieces, " ")
}
