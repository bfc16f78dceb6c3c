package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExtraction wraps every failure to read text out of a document.
var ErrExtraction = errors.New("text extraction failed")

// Extract reads the document at path and concatenates the text of every
// page in order, each page followed by a newline.
func Extract(path string) (text string, err error) {
	defer recoverExtraction(&text, &err)

	doc, err := Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	defer doc.Close()

	return ExtractDocument(doc)
}

// ExtractDocument concatenates page texts of an already opened document.
// PDF decoding can panic on malformed input; that is reported as an error.
func ExtractDocument(doc Document) (text string, err error) {
	defer recoverExtraction(&text, &err)

	var sb strings.Builder
	for i := range doc.NumPages() {
		page, err := doc.PageText(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrExtraction, i+1, err)
		}
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func recoverExtraction(text *string, err *error) {
	if r := recover(); r != nil {
		*text = ""
		*err = fmt.Errorf("%w: %v", ErrExtraction, r)
	}
}
