package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for documents no parser can read.
var ErrUnsupported = errors.New("unsupported document type")

// Document is a read-only, paginated view of an uploaded file.
// Pages are addressed 0..NumPages()-1; a page may have no text.
type Document interface {
	NumPages() int
	PageText(i int) (string, error)
	Close() error
}

// Parser opens a document stored at a path.
type Parser interface {
	Open(path string) (Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

var mimeExtensions = map[string]string{
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/markdown":   ".md",
	"text/csv":        ".csv",
	"text/html":       ".html",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Open picks a parser by extension and opens the document at path.
func Open(path string) (Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	return p.Open(path)
}

// IsSupported checks if a filename has a supported extension.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ExtensionForMIME maps an upload MIME type to a supported extension.
// Parameters such as "; charset=utf-8" are ignored.
func ExtensionForMIME(mime string) (string, bool) {
	mime, _, _ = strings.Cut(mime, ";")
	ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(mime))]
	return ext, ok
}

// pages is a Document whose text was read eagerly.
type pages []string

func (p pages) NumPages() int { return len(p) }

func (p pages) PageText(i int) (string, error) {
	if i < 0 || i >= len(p) {
		return "", fmt.Errorf("page %d out of range [0,%d)", i, len(p))
	}
	return p[i], nil
}

func (p pages) Close() error { return nil }

// readPages opens path and hands the stream to split.
func readPages(path string, split func(io.Reader) ([]string, error)) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	out, err := split(f)
	if err != nil {
		return nil, err
	}
	return pages(out), nil
}
