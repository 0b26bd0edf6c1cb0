package gh

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	gogh "github.com/google/go-github/v57/github"

	"github.com/adoptersbot/adopters/internal/retry"
)

func TestParseRateLimitHeaders(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Remaining", "42")
	resp.Header.Set("X-RateLimit-Limit", "5000")
	resp.Header.Set("X-RateLimit-Reset", "1767225600")

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining != 42 {
		t.Errorf("remaining = %d, want 42", remaining)
	}
	if limit != 5000 {
		t.Errorf("limit = %d, want 5000", limit)
	}
	if resetAt.Unix() != 1767225600 {
		t.Errorf("resetAt = %v, want unix 1767225600", resetAt)
	}
}

func TestParseRateLimitHeadersMissing(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	remaining, limit, _ := parseRateLimitHeaders(resp)
	if remaining != -1 || limit != -1 {
		t.Errorf("expected -1 sentinels, got %d, %d", remaining, limit)
	}
}

func TestRateLimitState(t *testing.T) {
	s := &RateLimitState{}
	reset := time.Now().Add(time.Hour)
	s.Update(10, 5000, reset)

	remaining, limit, resetAt := s.Status()
	if remaining != 10 || limit != 5000 {
		t.Errorf("Status() = %d, %d, want 10, 5000", remaining, limit)
	}
	if !resetAt.Equal(reset) {
		t.Errorf("resetAt = %v, want %v", resetAt, reset)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := NewClient(context.Background(), "", "org/project"); err == nil {
		t.Error("expected error without a token")
	}
}

func TestNewClientValidatesHomeIdentity(t *testing.T) {
	if _, err := NewClient(context.Background(), "tok", "not-an-identity"); err == nil {
		t.Error("expected error for malformed home identity")
	}
}

func TestNewClientAllowsEmptyHomeIdentity(t *testing.T) {
	c, err := NewClient(context.Background(), "tok", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("expected a client")
	}
}

func TestWrapAPIErrorNil(t *testing.T) {
	if wrapAPIError(nil) != nil {
		t.Error("expected nil passthrough")
	}
}

func TestWrapAPIErrorPlain(t *testing.T) {
	err := wrapAPIError(errors.New("GET https://api.github.com/x: 404 Not Found []"))
	var ce *retry.CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CallError, got %T", err)
	}
	if retry.Classify(err) != retry.ClassNonRetryable {
		t.Errorf("expected non-retryable classification for %q", ce.Message)
	}
}

func TestWrapAPIErrorAbuse(t *testing.T) {
	after := 30 * time.Second
	err := wrapAPIError(&gogh.AbuseRateLimitError{RetryAfter: &after})

	var ce *retry.CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CallError, got %T", err)
	}
	if !strings.Contains(ce.Message, "retry-after: 30") {
		t.Errorf("expected retry-after hint, got %q", ce.Message)
	}
	if retry.Classify(err) != retry.ClassRateLimited {
		t.Error("expected rate-limited classification")
	}
}

func TestWrapAPIErrorRateLimit(t *testing.T) {
	err := wrapAPIError(&gogh.RateLimitError{
		Rate: gogh.Rate{Reset: gogh.Timestamp{Time: time.Now().Add(10 * time.Second)}},
	})

	var ce *retry.CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CallError, got %T", err)
	}
	if !strings.Contains(ce.Message, "rate limit exceeded") {
		t.Errorf("unexpected message %q", ce.Message)
	}
	if retry.Classify(err) != retry.ClassRateLimited {
		t.Error("expected rate-limited classification")
	}
}
