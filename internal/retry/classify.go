package retry

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Class is the failure classification for one external call.
type Class int

const (
	// ClassTransient failures are retried with exponential backoff.
	ClassTransient Class = iota
	// ClassNonRetryable failures (auth, not-found) surface immediately.
	ClassNonRetryable
	// ClassRateLimited failures wait for the quota window before retrying.
	ClassRateLimited
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassNonRetryable:
		return "non-retryable"
	case ClassRateLimited:
		return "rate-limited"
	default:
		return "transient"
	}
}

// CallError carries the diagnostic text of a failed external call.
// Classification matches against both Stderr and Message.
type CallError struct {
	Message string
	Stderr  string
	Err     error // underlying cause, if any
}

func (e *CallError) Error() string {
	if e.Stderr != "" && e.Message != "" {
		return e.Message + ": " + e.Stderr
	}
	if e.Stderr != "" {
		return e.Stderr
	}
	return e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Markers checked against the lowercased error text. Non-retryable
// markers take precedence over rate-limit markers.
var (
	nonRetryableMarkers = []string{"404", "not found", "authentication", "bad credentials", "401"}
	rateLimitMarkers    = []string{"rate limit", "secondary rate limit", "abuse detection", "retry-after", "403", "429"}
)

// ErrorText returns the text used for classification: stderr plus
// message for a CallError anywhere in the chain, the plain Error()
// string otherwise.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Stderr + "\n" + ce.Message
	}
	return err.Error()
}

// Classify determines how a failed call should be handled.
func Classify(err error) Class {
	text := strings.ToLower(ErrorText(err))
	for _, m := range nonRetryableMarkers {
		if strings.Contains(text, m) {
			return ClassNonRetryable
		}
	}
	for _, m := range rateLimitMarkers {
		if strings.Contains(text, m) {
			return ClassRateLimited
		}
	}
	return ClassTransient
}

var retryAfterRe = regexp.MustCompile(`(?i)retry-after:?\s*(\d+)`)

// parseRetryAfter extracts a "retry-after: <seconds>" hint from error text.
func parseRetryAfter(text string) (time.Duration, bool) {
	m := retryAfterRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
