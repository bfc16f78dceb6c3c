package parser

import "strings"

// sections accumulates blocks into pages, starting a new page at every
// top-level heading. Deeper headings stay inline with their section.
type sections struct {
	pages   []string
	current strings.Builder
}

func (s *sections) heading(level int, title string) {
	if level == 1 {
		s.flush()
	}
	s.block(title)
}

func (s *sections) block(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if s.current.Len() > 0 {
		s.current.WriteString("\n\n")
	}
	s.current.WriteString(text)
}

func (s *sections) flush() {
	if s.current.Len() > 0 {
		s.pages = append(s.pages, s.current.String())
		s.current.Reset()
	}
}

func (s *sections) done() []string {
	s.flush()
	return s.pages
}
