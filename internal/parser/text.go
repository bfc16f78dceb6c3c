package parser

import (
	"fmt"
	"io"
	"strings"
)

// TextParser handles plain text files. Form feeds separate pages.
type TextParser struct{}

func (p *TextParser) Open(path string) (Document, error) {
	return readPages(path, func(r io.Reader) ([]string, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
		return splitPages(string(data)), nil
	})
}

func splitPages(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
