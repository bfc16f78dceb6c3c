package synth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docvoice/internal/speech"
)

type fakeSpeaker struct {
	calls []speech.Request
	audio []byte
	err   error
}

func (f *fakeSpeaker) Synthesize(_ context.Context, req speech.Request) ([]byte, error) {
	f.calls = append(f.calls, req)
	return f.audio, f.err
}

type fakeRewriter struct {
	calls []string
	out   string
	err   error
}

func (f *fakeRewriter) Rewrite(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	return f.out, f.err
}

// rateLimited builds an API error the way the openai client reports it;
// Error() needs the request and response populated.
func rateLimited() *openai.Error {
	return &openai.Error{
		StatusCode: http.StatusTooManyRequests,
		Request:    httptest.NewRequest(http.MethodPost, "/chat/completions", nil),
		Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
	}
}

func TestParseID(t *testing.T) {
	cases := map[string]ID{
		"direct":      IDDirect,
		"GTTS":        IDDirect,
		"ai-enhanced": IDEnhanced,
		" groq ":      IDEnhanced,
	}
	for in, want := range cases {
		id, ok := ParseID(in)
		require.True(t, ok, in)
		assert.Equal(t, want, id)
	}
	_, ok := ParseID("elevenlabs")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindOK, Classify(nil))
	assert.Equal(t, KindQuota, Classify(&speech.StatusError{StatusCode: http.StatusTooManyRequests}))
	assert.Equal(t, KindQuota, Classify(fmt.Errorf("wrapped: %w", rateLimited())))
	assert.Equal(t, KindQuota, Classify(errors.New("HTTP 429 from upstream")))
	assert.Equal(t, KindQuota, Classify(errors.New("You exceeded your current QUOTA")))
	assert.Equal(t, KindQuota, Classify(errors.New("insufficient_quota")))
	assert.Equal(t, KindFailed, Classify(&speech.StatusError{StatusCode: http.StatusInternalServerError, Body: "boom"}))
	assert.Equal(t, KindFailed, Classify(errors.New("connection reset")))
}

func TestDirect_Synthesize(t *testing.T) {
	sp := &fakeSpeaker{audio: []byte("mp3")}
	d := NewDirect(sp, "")

	res := d.Synthesize(context.Background(), "hello")
	assert.Equal(t, KindOK, res.Kind)
	assert.Equal(t, []byte("mp3"), res.Audio)
	require.Len(t, sp.calls, 1)
	assert.Equal(t, speech.Request{Text: "hello", Lang: "en"}, sp.calls[0])
	assert.Equal(t, 5000, d.MaxChunkLength())
	assert.Equal(t, IDDirect, d.ID())
}

func TestDirect_EmptyAudioFails(t *testing.T) {
	d := NewDirect(&fakeSpeaker{}, "en")
	res := d.Synthesize(context.Background(), "hello")
	assert.Equal(t, KindFailed, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNoAudio)
}

func TestDirect_Quota(t *testing.T) {
	d := NewDirect(&fakeSpeaker{err: &speech.StatusError{StatusCode: 429}}, "en")
	res := d.Synthesize(context.Background(), "hello")
	assert.Equal(t, KindQuota, res.Kind)
	assert.Nil(t, res.Audio)
}

// closedServerURL returns the address of a server that no longer listens.
// Addresses containing "429" are skipped so the dial error itself cannot
// look like a rate limit.
func closedServerURL(t *testing.T) string {
	t.Helper()
	for {
		srv := httptest.NewServer(http.NotFoundHandler())
		u := srv.URL
		srv.Close()
		if !strings.Contains(u, "429") {
			return u
		}
	}
}

func TestDirect_ConnectionErrorIgnoresChunkText(t *testing.T) {
	client := speech.NewClient(closedServerURL(t), 5*time.Second)
	d := NewDirect(client, "en")

	for _, text := range []string{"The annual quota report.", "Room 429 is upstairs.", "Plain text."} {
		t.Run(text, func(t *testing.T) {
			res := d.Synthesize(context.Background(), text)
			assert.Equal(t, KindFailed, res.Kind)
			require.Error(t, res.Err)
			assert.NotContains(t, res.Err.Error(), "q=")
			assert.NotContains(t, res.Err.Error(), strings.Fields(text)[1])
		})
	}
}

func TestEnhanced_RewritesThenSpeaks(t *testing.T) {
	sp := &fakeSpeaker{audio: []byte("mp3")}
	rw := &fakeRewriter{out: "friendly text"}
	e := NewEnhanced(rw, sp, "en")

	res := e.Synthesize(context.Background(), "dry text")
	assert.Equal(t, KindOK, res.Kind)
	assert.Equal(t, []string{"dry text"}, rw.calls)
	require.Len(t, sp.calls, 1)
	assert.Equal(t, "friendly text", sp.calls[0].Text)
	assert.Equal(t, 2000, e.MaxChunkLength())
}

func TestEnhanced_RewriteQuotaSkipsSpeech(t *testing.T) {
	sp := &fakeSpeaker{audio: []byte("mp3")}
	rw := &fakeRewriter{err: rateLimited()}
	e := NewEnhanced(rw, sp, "en")

	res := e.Synthesize(context.Background(), "x")
	assert.Equal(t, KindQuota, res.Kind)
	assert.Empty(t, sp.calls)
}

func TestEnhanced_SpeechFailure(t *testing.T) {
	sp := &fakeSpeaker{err: errors.New("dial tcp: timeout")}
	e := NewEnhanced(&fakeRewriter{out: "ok"}, sp, "en")
	res := e.Synthesize(context.Background(), "x")
	assert.Equal(t, KindFailed, res.Kind)
}

func TestUnavailable(t *testing.T) {
	u := NewUnavailable(IDEnhanced, EnhancedMaxChunk)
	res := u.Synthesize(context.Background(), "x")
	assert.Equal(t, KindFailed, res.Kind)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	assert.Equal(t, IDEnhanced, u.ID())
	assert.Equal(t, 2000, u.MaxChunkLength())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewDirect(&fakeSpeaker{}, "en"), NewUnavailable(IDEnhanced, EnhancedMaxChunk))
	b, ok := r.Get(IDDirect)
	require.True(t, ok)
	assert.Equal(t, IDDirect, b.ID())
	_, ok = r.Get("other")
	assert.False(t, ok)
	assert.Equal(t, []ID{IDEnhanced, IDDirect}, r.IDs())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Google TTS", Describe(IDDirect).Name)
	assert.Equal(t, "Groq AI", Describe(IDEnhanced).Name)
	assert.Equal(t, "custom", Describe("custom").Name)
}
