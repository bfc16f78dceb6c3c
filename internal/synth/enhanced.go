package synth

import (
	"context"
	"fmt"
)

// EnhancedMaxChunk is the ai-enhanced backend's chunk size.
const EnhancedMaxChunk = 2000

// Rewriter turns text into a speech-friendly script.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// Enhanced rewrites each chunk with a language model, then speaks the
// rewritten text with the same speech service as Direct.
type Enhanced struct {
	rewriter Rewriter
	voice    *Direct
}

func NewEnhanced(rewriter Rewriter, speaker Speaker, lang string) *Enhanced {
	return &Enhanced{rewriter: rewriter, voice: NewDirect(speaker, lang)}
}

func (e *Enhanced) ID() ID              { return IDEnhanced }
func (e *Enhanced) MaxChunkLength() int { return EnhancedMaxChunk }

func (e *Enhanced) Synthesize(ctx context.Context, chunk string) Result {
	script, err := e.rewriter.Rewrite(ctx, chunk)
	if err != nil {
		return result(nil, fmt.Errorf("rewrite: %w", err))
	}
	return result(e.voice.speak(ctx, script))
}

// Unavailable stands in for a backend whose credentials are missing.
// It fails every chunk without touching the network.
type Unavailable struct {
	id       ID
	maxChunk int
}

func NewUnavailable(id ID, maxChunk int) *Unavailable {
	return &Unavailable{id: id, maxChunk: maxChunk}
}

func (u *Unavailable) ID() ID              { return u.id }
func (u *Unavailable) MaxChunkLength() int { return u.maxChunk }

func (u *Unavailable) Synthesize(context.Context, string) Result {
	return Result{Kind: KindFailed, Err: fmt.Errorf("%s: %w", u.id, ErrUnavailable)}
}
