package synth

import (
	"context"

	"github.com/dgallion1/docvoice/internal/speech"
)

// DirectMaxChunk is the direct backend's chunk size.
const DirectMaxChunk = 5000

// Speaker fetches audio for text.
type Speaker interface {
	Synthesize(ctx context.Context, req speech.Request) ([]byte, error)
}

// Direct sends chunk text straight to the speech service.
type Direct struct {
	speaker Speaker
	lang    string
}

func NewDirect(speaker Speaker, lang string) *Direct {
	if lang == "" {
		lang = "en"
	}
	return &Direct{speaker: speaker, lang: lang}
}

func (d *Direct) ID() ID              { return IDDirect }
func (d *Direct) MaxChunkLength() int { return DirectMaxChunk }

func (d *Direct) Synthesize(ctx context.Context, chunk string) Result {
	return result(d.speak(ctx, chunk))
}

func (d *Direct) speak(ctx context.Context, text string) ([]byte, error) {
	return d.speaker.Synthesize(ctx, speech.Request{Text: text, Lang: d.lang})
}
