package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocument struct {
	texts []string
	errAt int
	panic bool
}

func (d *stubDocument) NumPages() int { return len(d.texts) }

func (d *stubDocument) PageText(i int) (string, error) {
	if d.panic {
		panic("malformed object stream")
	}
	if d.errAt == i {
		return "", errors.New("bad page")
	}
	return d.texts[i], nil
}

func (d *stubDocument) Close() error { return nil }

func TestExtract_AppendsNewlinePerPage(t *testing.T) {
	path := writeFile(t, "doc.txt", "Hello\fWorld")
	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld\n", text)
}

func TestExtractDocument_BlankPagesKeepNewline(t *testing.T) {
	doc := &stubDocument{texts: []string{"", "", ""}, errAt: -1}
	text, err := ExtractDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "\n\n\n", text)
}

func TestExtractDocument_PageError(t *testing.T) {
	doc := &stubDocument{texts: []string{"a", "b"}, errAt: 1}
	text, err := ExtractDocument(doc)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Empty(t, text)
}

func TestExtractDocument_RecoversPanic(t *testing.T) {
	doc := &stubDocument{texts: []string{"a"}, errAt: -1, panic: true}
	text, err := ExtractDocument(doc)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Empty(t, text)
}

func TestExtract_CorruptPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")
	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := Extract("/nonexistent/file.txt")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_Unsupported(t *testing.T) {
	path := writeFile(t, "image.png", "png")
	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, ErrUnsupported)
}

const threePagePDF = "testdata/three_pages.pdf"

func TestPDF_PagesInOrder(t *testing.T) {
	doc, err := Open(threePagePDF)
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 3, doc.NumPages())

	first, err := doc.PageText(0)
	require.NoError(t, err)
	assert.Equal(t, "First page", strings.TrimSpace(first))

	// The middle page has no content stream.
	blank, err := doc.PageText(1)
	require.NoError(t, err)
	assert.Empty(t, blank)

	third, err := doc.PageText(2)
	require.NoError(t, err)
	assert.Equal(t, "Third page", strings.TrimSpace(third))
}

func TestExtract_PDFAppendsNewlinePerPage(t *testing.T) {
	doc, err := Open(threePagePDF)
	require.NoError(t, err)
	var want strings.Builder
	for i := range doc.NumPages() {
		page, err := doc.PageText(i)
		require.NoError(t, err)
		want.WriteString(page)
		want.WriteString("\n")
	}
	require.NoError(t, doc.Close())

	text, err := Extract(threePagePDF)
	require.NoError(t, err)
	assert.Equal(t, want.String(), text)
	assert.Less(t, strings.Index(text, "First page"), strings.Index(text, "Third page"))
	assert.True(t, strings.HasSuffix(text, "Third page\n"))
}
