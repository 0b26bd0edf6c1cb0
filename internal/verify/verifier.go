// Package verify turns community-filed submission issues into verified
// repository identities and the housekeeping actions needed to close
// them out.
package verify

import (
	"context"
	"time"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
	"github.com/adoptersbot/adopters/internal/retry"
)

// State is the terminal verification state of one issue.
type State int

const (
	// StateNew is the initial, non-terminal state.
	StateNew State = iota
	// StateVerified means a parsed candidate's marker file exists.
	StateVerified
	// StateUnparseable means no repository reference could be parsed.
	StateUnparseable
	// StateNotFound means every parsed candidate failed verification.
	StateNotFound
)

// ContentChecker verifies that a file exists in a repository.
// A nil error implies existence.
type ContentChecker interface {
	CheckContent(ctx context.Context, identity, path string) error
}

// Verifier runs the per-issue verification state machine. The
// verified-identity set is scoped to one Verifier instance, which is
// created fresh per run.
type Verifier struct {
	Marker  string
	Checker ContentChecker
	Exec    *retry.Executor     // retries transient check failures; nil calls directly
	Pace    time.Duration       // delay between successive existence checks
	Sleep   func(time.Duration) // injectable for tests; defaults to time.Sleep

	verified map[string]model.ParsedSubmission
	order    []string
}

// NewVerifier creates a Verifier for one pipeline run.
func NewVerifier(marker string, checker ContentChecker, pace time.Duration) *Verifier {
	return &Verifier{
		Marker:   marker,
		Checker:  checker,
		Pace:     pace,
		verified: make(map[string]model.ParsedSubmission),
	}
}

// check runs one existence check, retrying transient failures through
// the executor so a flaky 5xx cannot turn a valid submission into a
// rejection. Non-retryable failures (404) still surface immediately.
func (v *Verifier) check(ctx context.Context, identity, path string) error {
	if v.Exec == nil {
		return v.Checker.CheckContent(ctx, identity, path)
	}
	return v.Exec.Run(ctx, func(ctx context.Context) error {
		return v.Checker.CheckContent(ctx, identity, path)
	})
}

func (v *Verifier) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if v.Sleep != nil {
		v.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Verified returns the unique verified submissions in the order their
// identities were first verified.
func (v *Verifier) Verified() []model.ParsedSubmission {
	out := make([]model.ParsedSubmission, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.verified[id])
	}
	return out
}

// VerifyAll processes every submission issue and returns the verified
// submissions plus one housekeeping action per open issue. Closed
// issues are verified (their identities still count as adopters) but
// yield no action.
func (v *Verifier) VerifyAll(ctx context.Context, issues []model.IssueSubmission) ([]model.ParsedSubmission, []model.IssueAction) {
	var actions []model.IssueAction

	for _, issue := range issues {
		state, sub := v.verifyIssue(ctx, issue)

		log.Debug("issue verified",
			"number", issue.Number,
			"state", stateName(state),
			"open", issue.State == "open")

		if issue.State != "open" {
			continue
		}

		switch state {
		case StateVerified:
			actions = append(actions, model.IssueAction{
				Number:   issue.Number,
				Type:     model.ActionCloseValid,
				Identity: sub.Identity,
			})
		case StateUnparseable:
			actions = append(actions, model.IssueAction{
				Number: issue.Number,
				Type:   model.ActionReject,
				Reason: model.ReasonUnparseable,
			})
		case StateNotFound:
			action := model.IssueAction{
				Number: issue.Number,
				Type:   model.ActionReject,
				Reason: model.ReasonNotFound,
			}
			if sub != nil {
				action.Identity = sub.Identity
			}
			actions = append(actions, action)
		}
	}

	return v.Verified(), actions
}

// verifyIssue runs the state machine for a single issue. Candidates
// are parsed from the title, then the body. An identity already
// verified earlier in the run short-circuits to StateVerified without
// another existence check. For StateNotFound, the first parsed
// candidate is returned so the rejection can reference it.
func (v *Verifier) verifyIssue(ctx context.Context, issue model.IssueSubmission) (State, *model.ParsedSubmission) {
	var candidates []model.ParsedSubmission
	if sub := ParseSubmission(issue.Title, v.Marker); sub != nil {
		candidates = append(candidates, *sub)
	}
	if sub := ParseSubmission(issue.Body, v.Marker); sub != nil {
		candidates = append(candidates, *sub)
	}

	if len(candidates) == 0 {
		return StateUnparseable, nil
	}

	for i, cand := range candidates {
		if _, ok := v.verified[cand.Identity]; ok {
			return StateVerified, &cand
		}

		err := v.check(ctx, cand.Identity, cand.FilePath)
		if err == nil {
			v.verified[cand.Identity] = cand
			v.order = append(v.order, cand.Identity)
			return StateVerified, &cand
		}

		log.Debug("candidate failed verification",
			"number", issue.Number,
			"identity", cand.Identity,
			"path", cand.FilePath,
			"error", err)
		if i < len(candidates)-1 {
			v.sleep(v.Pace)
		}
	}

	return StateNotFound, &candidates[0]
}

func stateName(s State) string {
	switch s {
	case StateVerified:
		return "verified"
	case StateUnparseable:
		return "unparseable"
	case StateNotFound:
		return "not-found"
	default:
		return "new"
	}
}
