package parser

import (
	"fmt"
	"os"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser reads PDF files page by page.
type PDFParser struct{}

func (p *PDFParser) Open(path string) (Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{file: f, reader: reader}, nil
}

type pdfDocument struct {
	file   *os.File
	reader *pdflib.Reader
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

// PageText returns "" for pages without a text layer (scans, images).
func (d *pdfDocument) PageText(i int) (string, error) {
	page := d.reader.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("pdf page text: %w", err)
	}
	return text, nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}
