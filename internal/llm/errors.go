package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
)

// Kind classifies a failed generation call.
type Kind string

const (
	// KindRateLimited means the provider asked us to slow down (429).
	KindRateLimited Kind = "rate_limited"
	// KindUnavailable covers 5xx answers and transport failures.
	KindUnavailable Kind = "unavailable"
	// KindRejected means the provider refused the request itself, e.g. a
	// bad API key, a malformed request or a content filter. Retrying the
	// same request cannot succeed.
	KindRejected Kind = "rejected"
	// KindInvalidOutput means the reply was not the JSON we asked for.
	KindInvalidOutput Kind = "invalid_output"
	// KindTruncated means the reply hit the token limit.
	KindTruncated Kind = "truncated"
	// KindTimeout means the call outlived its fixed deadline.
	KindTimeout Kind = "timeout"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrUnavailable   = &Error{Kind: KindUnavailable}
	ErrRejected      = &Error{Kind: KindRejected}
	ErrInvalidOutput = &Error{Kind: KindInvalidOutput}
	ErrTruncated     = &Error{Kind: KindTruncated}
	ErrTimeout       = &Error{Kind: KindTimeout}
)

var kindText = map[Kind]string{
	KindRateLimited:   "rate limited",
	KindUnavailable:   "provider unavailable",
	KindRejected:      "request rejected",
	KindInvalidOutput: "invalid response",
	KindTruncated:     "response truncated at the token limit",
	KindTimeout:       "request timed out",
}

// Error is a failed generation call. Every Error also matches
// apperr.ErrGenerationFailed, so callers can treat it as a generation
// failure without knowing the provider.
type Error struct {
	Kind     Kind
	Provider string
	// RetryAfter is the provider's requested back-off for rate limits.
	RetryAfter time.Duration
	// Content is the raw reply for invalid or truncated output.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("llm")
	if e.Provider != "" {
		b.WriteString(" " + e.Provider)
	}
	b.WriteString(": ")
	if text, ok := kindText[e.Kind]; ok {
		b.WriteString(text)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels of the same kind and apperr.ErrGenerationFailed.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Error:
		return t.Kind == e.Kind
	case *apperr.Error:
		return t.Kind == apperr.KindGenerationFailed
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classifyStatus maps an upstream HTTP status to a failure. A zero status
// means the request never got an answer.
func classifyStatus(provider string, status int, wait time.Duration, err error) *Error {
	e := &Error{Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = wait
	case status == 0, status == http.StatusRequestTimeout, status >= 500:
		e.Kind = KindUnavailable
	case status >= 400:
		e.Kind = KindRejected
	default:
		e.Kind = KindUnavailable
	}
	return e
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
