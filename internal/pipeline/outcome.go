package pipeline

import (
	"github.com/dgallion1/docvoice/internal/synth"
)

// OutcomeKind is the terminal classification of a run.
type OutcomeKind string

const (
	OutcomeDone          OutcomeKind = "done"
	OutcomeEmptyText     OutcomeKind = "empty_text"
	OutcomeQuotaExceeded OutcomeKind = "quota_exceeded"
	OutcomeFailed        OutcomeKind = "failed"
)

// fallbackLimit is how many code points of extracted text a user gets back
// when the backend runs out of quota.
const fallbackLimit = 1000

// AudioSegment is one synthesized chunk on disk. Path lives in the run
// workspace and is only valid while the Deliver callback runs.
type AudioSegment struct {
	Index int    `json:"index"`
	Path  string `json:"-"`
	Size  int64  `json:"size"`
}

// Outcome is the terminal result of a conversion.
//
// Done carries Segments and Count. QuotaExceeded carries Backend and
// Fallback. Err records the cause of QuotaExceeded and Failed for logs;
// it is not meant for end users.
type Outcome struct {
	RunID    string         `json:"run_id"`
	Kind     OutcomeKind    `json:"outcome"`
	Backend  synth.ID       `json:"backend"`
	Segments []AudioSegment `json:"segments,omitempty"`
	Count    int            `json:"count"`
	Fallback string         `json:"fallback_text,omitempty"`
	Err      error          `json:"-"`
}

func (o Outcome) status() Status {
	switch o.Kind {
	case OutcomeDone:
		return StatusDone
	case OutcomeEmptyText:
		return StatusEmptyText
	case OutcomeQuotaExceeded:
		return StatusQuotaExceeded
	}
	return StatusFailed
}

// FallbackText returns the first 1000 code points of text, with "..."
// appended only when text was longer.
func FallbackText(text string) string {
	n := 0
	for i := range text {
		if n == fallbackLimit {
			return text[:i] + "..."
		}
		n++
	}
	return text
}
