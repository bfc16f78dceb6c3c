package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks := Split("Hello \nworld.\n", 5000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello \nworld.\n", chunks[0])
}

func TestSplit_ExactMultiple(t *testing.T) {
	chunks := Split("abcdef", 3)
	assert.Equal(t, []string{"abc", "def"}, chunks)
}

func TestSplit_Remainder(t *testing.T) {
	text := strings.Repeat("x", 12000)
	chunks := Split(text, 5000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 5000)
	assert.Len(t, chunks[1], 5000)
	assert.Len(t, chunks[2], 2000)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_CountsCodePoints(t *testing.T) {
	text := strings.Repeat("é", 7)
	chunks := Split(text, 3)
	require.Len(t, chunks, 3)
	for _, c := range chunks[:2] {
		assert.Equal(t, 3, utf8.RuneCountInString(c))
	}
	assert.Equal(t, "é", chunks[2])
}

func TestSplit_DropsBlankWindows(t *testing.T) {
	text := "abc" + "   " + "def"
	chunks := Split(text, 3)
	assert.Equal(t, []string{"abc", "def"}, chunks)
}

func TestSplit_BlankText(t *testing.T) {
	assert.Empty(t, Split("\n\n\n", 5000))
	assert.Empty(t, Split("", 5000))
}

func TestSplit_NonPositiveMax(t *testing.T) {
	assert.Empty(t, Split("hello", 0))
	assert.Empty(t, Split("hello", -1))
}

func TestSplit_MidWordBoundary(t *testing.T) {
	chunks := Split("hello world", 4)
	assert.Equal(t, []string{"hell", "o wo", "rld"}, chunks)
}
