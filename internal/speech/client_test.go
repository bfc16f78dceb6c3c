package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedQuery struct {
	text, lang, speed, client string
}

func newTTSServer(t *testing.T, status int) (*httptest.Server, *[]recordedQuery) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		mu.Lock()
		seen = append(seen, recordedQuery{
			text:   q.Get("q"),
			lang:   q.Get("tl"),
			speed:  q.Get("ttsspeed"),
			client: q.Get("client"),
		})
		mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte("Too Many Requests"))
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3[" + q.Get("idx") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestSynthesize_SinglePiece(t *testing.T) {
	srv, seen := newTTSServer(t, http.StatusOK)
	c := NewClient(srv.URL, time.Second)

	audio, err := c.Synthesize(context.Background(), Request{Text: "Hello world.", Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, "ID3[0]", string(audio))

	require.Len(t, *seen, 1)
	q := (*seen)[0]
	assert.Equal(t, "Hello world.", q.text)
	assert.Equal(t, "en", q.lang)
	assert.Equal(t, "1", q.speed)
	assert.Equal(t, "tw-ob", q.client)
}

func TestSynthesize_ConcatenatesPieces(t *testing.T) {
	srv, seen := newTTSServer(t, http.StatusOK)
	c := NewClient(srv.URL, time.Second)

	text := strings.Repeat("word ", 50)
	audio, err := c.Synthesize(context.Background(), Request{Text: text, Slow: true})
	require.NoError(t, err)

	assert.Len(t, *seen, 3)
	assert.Equal(t, "ID3[0]ID3[1]ID3[2]", string(audio))
	for _, q := range *seen {
		assert.Equal(t, "0.24", q.speed)
		assert.Equal(t, "en", q.lang)
		assert.LessOrEqual(t, len(q.text), maxPieceLen)
	}
}

func TestSynthesize_StatusError(t *testing.T) {
	srv, _ := newTTSServer(t, http.StatusTooManyRequests)
	c := NewClient(srv.URL, time.Second)

	_, err := c.Synthesize(context.Background(), Request{Text: "hi"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
}

func TestSynthesize_NoText(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Synthesize(context.Background(), Request{Text: " \n ... "})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestSynthesize_ContextCancelled(t *testing.T) {
	srv, _ := newTTSServer(t, http.StatusOK)
	c := NewClient(srv.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Synthesize(ctx, Request{Text: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}
