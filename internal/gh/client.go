// Package gh provides the GitHub API layer for the adopters pipeline.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	gogh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
	"github.com/adoptersbot/adopters/internal/retry"
)

// RateLimitLowWatermark is the remaining-request count below which a
// warning is logged.
const RateLimitLowWatermark = 100

// rateLimitTransport wraps an http.RoundTripper to observe GitHub rate
// limit headers. Unlike a global limiter, the state lives on the
// client so it is scoped to one pipeline run.
type rateLimitTransport struct {
	base   http.RoundTripper
	limits *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.limits.Update(remaining, limit, resetAt)
	}

	if remaining >= 0 && remaining <= RateLimitLowWatermark {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// Client wraps the GitHub API client. homeOwner/homeRepo identify the
// repository where submission issues are filed.
type Client struct {
	api       *gogh.Client
	homeOwner string
	homeRepo  string
	limits    *RateLimitState
}

// NewClient creates a GitHub client using a personal access token and
// the "owner/name" identity of the home repository. The home identity
// may be empty for commands that never touch submission issues.
func NewClient(ctx context.Context, token, homeIdentity string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	var owner, repo string
	if homeIdentity != "" {
		var ok bool
		owner, repo, ok = model.SplitIdentity(homeIdentity)
		if !ok {
			return nil, fmt.Errorf("invalid home repository %q, expected owner/name", homeIdentity)
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	limits := &RateLimitState{}
	tc.Transport = &rateLimitTransport{
		base:   tc.Transport,
		limits: limits,
	}

	return &Client{
		api:       gogh.NewClient(tc),
		homeOwner: owner,
		homeRepo:  repo,
		limits:    limits,
	}, nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gogh.RateLimits, error) {
	limits, _, err := c.api.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// LimitState returns the rate limit state observed on this client.
func (c *Client) LimitState() *RateLimitState {
	return c.limits
}

// wrapAPIError converts go-github errors into retry.CallError values
// whose text the retrying executor can classify. Rate limit errors get
// an explicit retry-after hint derived from the API response.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var abuse *gogh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		secs := 0
		if abuse.RetryAfter != nil {
			secs = int(abuse.RetryAfter.Seconds())
		}
		return &retry.CallError{
			Message: fmt.Sprintf("abuse detection triggered, retry-after: %d", secs),
			Err:     err,
		}
	}

	var limited *gogh.RateLimitError
	if errors.As(err, &limited) {
		secs := int(time.Until(limited.Rate.Reset.Time).Seconds())
		if secs < 0 {
			secs = 0
		}
		return &retry.CallError{
			Message: fmt.Sprintf("rate limit exceeded, retry-after: %d", secs),
			Err:     err,
		}
	}

	// go-github error strings include the HTTP status ("404 Not Found",
	// "401 Bad credentials"), which the classifier matches directly.
	return &retry.CallError{Message: err.Error(), Err: err}
}
