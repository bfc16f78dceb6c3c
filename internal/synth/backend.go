// Package synth holds the speech synthesis backends a conversion run can
// use, and the single place where their errors are classified.
package synth

import (
	"context"
	"strings"
)

// ID names a backend. Users pick one by ID.
type ID string

const (
	IDDirect   ID = "direct"
	IDEnhanced ID = "ai-enhanced"
)

// DefaultID is used for users who never chose a backend.
const DefaultID = IDDirect

var aliases = map[string]ID{
	"direct":      IDDirect,
	"gtts":        IDDirect,
	"ai-enhanced": IDEnhanced,
	"ai":          IDEnhanced,
	"groq":        IDEnhanced,
}

// ParseID accepts canonical IDs and the short aliases users type.
func ParseID(s string) (ID, bool) {
	id, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return id, ok
}

// Kind classifies a chunk synthesis result.
type Kind string

const (
	KindOK     Kind = "ok"
	KindQuota  Kind = "quota"
	KindFailed Kind = "failed"
)

// Result is the outcome of synthesizing one chunk. Audio is set only
// for KindOK; Err is set otherwise.
type Result struct {
	Kind  Kind
	Audio []byte
	Err   error
}

// Backend turns one chunk of text into audio.
type Backend interface {
	ID() ID
	// MaxChunkLength is the largest chunk, in code points, the backend
	// accepts in one Synthesize call.
	MaxChunkLength() int
	Synthesize(ctx context.Context, chunk string) Result
}

// Info describes a backend to end users.
type Info struct {
	Name        string
	Description string
	Emoji       string
	Features    []string
}

var infos = map[ID]Info{
	IDDirect: {
		Name:        "Google TTS",
		Description: "Free and fast",
		Emoji:       "🇺🇸",
		Features:    []string{"Fast processing", "Reliable", "No API key needed", "Good for long documents"},
	},
	IDEnhanced: {
		Name:        "Groq AI",
		Description: "AI-enhanced text processing",
		Emoji:       "🤖",
		Features:    []string{"AI-enhanced text", "Natural conversational style", "Better flow", "Requires API key"},
	},
}

// Describe returns display metadata for id.
func Describe(id ID) Info {
	if info, ok := infos[id]; ok {
		return info
	}
	return Info{Name: string(id)}
}

// result builds a Result from an audio payload and error.
func result(audio []byte, err error) Result {
	if err != nil {
		return Result{Kind: Classify(err), Err: err}
	}
	if len(audio) == 0 {
		return Result{Kind: KindFailed, Err: ErrNoAudio}
	}
	return Result{Kind: KindOK, Audio: audio}
}
