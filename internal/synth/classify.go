package synth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/dgallion1/docvoice/internal/speech"
)

var (
	// ErrNoAudio means a backend call succeeded but produced nothing.
	ErrNoAudio = errors.New("backend returned no audio")
	// ErrUnavailable means the backend is not configured.
	ErrUnavailable = errors.New("backend not configured")
)

var quotaMarkers = []string{"429", "quota", "insufficient_quota"}

// Classify maps a backend error to a result kind. Rate limiting and
// exhausted quota are KindQuota; everything else is KindFailed.
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}

	var statusErr *speech.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return KindQuota
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return KindQuota
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return KindQuota
		}
	}
	return KindFailed
}
