// Package speech is a client for the Google Translate text-to-speech
// endpoint, the same service gTTS talks to.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public endpoint host.
const DefaultBaseURL = "https://translate.google.com"

// ErrNoText is returned when a request carries nothing speakable.
var ErrNoText = errors.New("no text to speak")

// Request describes one synthesis call.
type Request struct {
	Text string
	Lang string
	Slow bool
}

// StatusError is returned for any non-200 reply.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("speech api status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Client fetches MP3 audio for text.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize returns MP3 bytes for req.Text. Long text is split into
// pieces the endpoint accepts and the returned audio is their concatenation.
func (c *Client) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Lang == "" {
		req.Lang = "en"
	}
	parts := Tokenize(req.Text, maxPieceLen)
	if len(parts) == 0 {
		return nil, ErrNoText
	}

	var audio bytes.Buffer
	for i, part := range parts {
		data, err := c.fetch(ctx, req, part, i, len(parts))
		if err != nil {
			return nil, fmt.Errorf("speech piece %d/%d: %w", i+1, len(parts), err)
		}
		audio.Write(data)
	}
	return audio.Bytes(), nil
}

func (c *Client) fetch(ctx context.Context, req Request, text string, idx, total int) ([]byte, error) {
	speed := "1"
	if req.Slow {
		speed = "0.24"
	}
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", text)
	q.Set("tl", req.Lang)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(text))))
	q.Set("client", "tw-ob")
	q.Set("ttsspeed", speed)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; docvoice)")
	httpReq.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The request URL carries the text being spoken; keep it out of
		// error messages and logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
		}
		return nil, fmt.Errorf("speech api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
