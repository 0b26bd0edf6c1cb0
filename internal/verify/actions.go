package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
	"github.com/adoptersbot/adopters/internal/retry"
)

// IssueMutator performs the three issue housekeeping operations on the
// home repository.
type IssueMutator interface {
	CreateComment(ctx context.Context, number int, body string) error
	EditLabels(ctx context.Context, number int, add []string, remove []string) error
	CloseIssue(ctx context.Context, number int) error
}

// RejectedLabel marks issues whose submission could not be verified.
const RejectedLabel = "rejected"

// Comment templates posted before closing an issue.
const (
	closeValidTemplate = "Thanks for the submission! %s has been verified and will appear in the adopters registry after the next update. Closing this issue."

	rejectNotFoundTemplate = "Thanks for the submission, but the marker file for %s could not be found. Please double-check the repository and file path and open a new issue. Closing this one."

	rejectUnparseableTemplate = "Thanks for the submission, but no repository reference could be parsed from this issue. Please include either a link to the marker file or an owner/repo identifier and open a new issue. Closing this one."
)

// ActionRunner executes pending issue housekeeping actions
// sequentially, pacing between successive external calls.
type ActionRunner struct {
	Mutator         IssueMutator
	SubmissionLabel string
	Exec            *retry.Executor // retries transient mutation failures; nil calls directly
	Pace            time.Duration
	Sleep           func(time.Duration) // injectable for tests
}

// NewActionRunner creates an ActionRunner.
func NewActionRunner(mutator IssueMutator, submissionLabel string, pace time.Duration) *ActionRunner {
	return &ActionRunner{
		Mutator:         mutator,
		SubmissionLabel: submissionLabel,
		Pace:            pace,
	}
}

func (r *ActionRunner) sleep() {
	if r.Pace <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(r.Pace)
		return
	}
	time.Sleep(r.Pace)
}

// call runs one issue mutation, retrying transient failures through
// the executor.
func (r *ActionRunner) call(ctx context.Context, op func(ctx context.Context) error) error {
	if r.Exec == nil {
		return op(ctx)
	}
	return r.Exec.Run(ctx, op)
}

// Process executes every action in order. A failed action is logged
// and does not stop processing of the remaining actions. It returns
// the number of actions that completed without error. The pacing delay
// separates successive calls, including across action boundaries, but
// never trails the final one.
func (r *ActionRunner) Process(ctx context.Context, actions []model.IssueAction) int {
	completed := 0
	for i, action := range actions {
		if err := r.process(ctx, action); err != nil {
			log.Error("issue action failed",
				"number", action.Number,
				"type", string(action.Type),
				"error", err)
		} else {
			completed++
		}

		if i < len(actions)-1 {
			r.sleep()
		}
	}
	return completed
}

func (r *ActionRunner) process(ctx context.Context, action model.IssueAction) error {
	switch action.Type {
	case model.ActionCloseValid:
		return r.closeValid(ctx, action)
	case model.ActionReject:
		return r.reject(ctx, action)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (r *ActionRunner) closeValid(ctx context.Context, action model.IssueAction) error {
	body := fmt.Sprintf(closeValidTemplate, action.Identity)
	if err := r.call(ctx, func(ctx context.Context) error {
		return r.Mutator.CreateComment(ctx, action.Number, body)
	}); err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	r.sleep()

	if err := r.call(ctx, func(ctx context.Context) error {
		return r.Mutator.CloseIssue(ctx, action.Number)
	}); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (r *ActionRunner) reject(ctx context.Context, action model.IssueAction) error {
	var body string
	switch action.Reason {
	case model.ReasonNotFound:
		body = fmt.Sprintf(rejectNotFoundTemplate, action.Identity)
	default:
		body = rejectUnparseableTemplate
	}

	if err := r.call(ctx, func(ctx context.Context) error {
		return r.Mutator.CreateComment(ctx, action.Number, body)
	}); err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	r.sleep()

	if err := r.call(ctx, func(ctx context.Context) error {
		return r.Mutator.EditLabels(ctx, action.Number, []string{RejectedLabel}, []string{r.SubmissionLabel})
	}); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	r.sleep()

	if err := r.call(ctx, func(ctx context.Context) error {
		return r.Mutator.CloseIssue(ctx, action.Number)
	}); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
