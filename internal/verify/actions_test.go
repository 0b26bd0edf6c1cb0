package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptersbot/adopters/internal/model"
)

// flakyMutator fails the first n operations with a transient error,
// then delegates to the inner mutator.
type flakyMutator struct {
	inner    *fakeMutator
	failures int
	calls    int
}

func (f *flakyMutator) op(do func() error) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("500 Internal Server Error")
	}
	return do()
}

func (f *flakyMutator) CreateComment(ctx context.Context, number int, body string) error {
	return f.op(func() error { return f.inner.CreateComment(ctx, number, body) })
}

func (f *flakyMutator) EditLabels(ctx context.Context, number int, add, remove []string) error {
	return f.op(func() error { return f.inner.EditLabels(ctx, number, add, remove) })
}

func (f *flakyMutator) CloseIssue(ctx context.Context, number int) error {
	return f.op(func() error { return f.inner.CloseIssue(ctx, number) })
}

// fakeMutator records every issue operation in order and can be told
// to fail specific operations.
type fakeMutator struct {
	ops      []string
	comments []string
	failOn   string // op prefix that should return an error
}

func (f *fakeMutator) op(name string) error {
	f.ops = append(f.ops, name)
	if f.failOn != "" && strings.HasPrefix(name, f.failOn) {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeMutator) CreateComment(_ context.Context, number int, body string) error {
	f.comments = append(f.comments, body)
	return f.op(fmt.Sprintf("comment:%d", number))
}

func (f *fakeMutator) EditLabels(_ context.Context, number int, add, remove []string) error {
	return f.op(fmt.Sprintf("labels:%d:+%s:-%s", number, strings.Join(add, ","), strings.Join(remove, ",")))
}

func (f *fakeMutator) CloseIssue(_ context.Context, number int) error {
	return f.op(fmt.Sprintf("close:%d", number))
}

func newRunnerForTest(m *fakeMutator) *ActionRunner {
	r := NewActionRunner(m, "adopter-submission", time.Millisecond)
	r.Sleep = func(time.Duration) {}
	return r
}

func TestProcessCloseValid(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)

	actions := []model.IssueAction{
		{Number: 1, Type: model.ActionCloseValid, Identity: "acme/widgets"},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 1, completed)
	assert.Equal(t, []string{"comment:1", "close:1"}, m.ops)
	require.Len(t, m.comments, 1)
	assert.Contains(t, m.comments[0], "acme/widgets")
	assert.Contains(t, m.comments[0], "verified")
}

func TestProcessRejectNotFound(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)

	actions := []model.IssueAction{
		{Number: 2, Type: model.ActionReject, Reason: model.ReasonNotFound, Identity: "ghost/repo"},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 1, completed)
	assert.Equal(t, []string{
		"comment:2",
		"labels:2:+rejected:-adopter-submission",
		"close:2",
	}, m.ops)
	require.Len(t, m.comments, 1)
	assert.Contains(t, m.comments[0], "ghost/repo")
	assert.Contains(t, m.comments[0], "could not be found")
}

func TestProcessRejectUnparseable(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)

	actions := []model.IssueAction{
		{Number: 3, Type: model.ActionReject, Reason: model.ReasonUnparseable},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 1, completed)
	require.Len(t, m.comments, 1)
	assert.Contains(t, m.comments[0], "no repository reference")
}

func TestProcessRetriesTransientMutationFailure(t *testing.T) {
	inner := &fakeMutator{}
	m := &flakyMutator{inner: inner, failures: 1}
	r := newRunnerForTest(inner)
	r.Mutator = m
	r.Exec = testExecutor()

	actions := []model.IssueAction{
		{Number: 4, Type: model.ActionCloseValid, Identity: "acme/widgets"},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 1, completed, "transient failure retried, action still completes")
	assert.Equal(t, []string{"comment:4", "close:4"}, inner.ops)
	assert.Equal(t, 3, m.calls, "failed comment attempt plus two successes")
}

func TestProcessPacingNeverTrailsFinalCall(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)
	sleeps := 0
	r.Sleep = func(time.Duration) { sleeps++ }

	actions := []model.IssueAction{
		{Number: 1, Type: model.ActionCloseValid, Identity: "a/one"},
		{Number: 2, Type: model.ActionCloseValid, Identity: "b/two"},
	}

	r.Process(context.Background(), actions)
	// One pause inside each close-valid pair plus one between the two
	// actions; nothing after the last close.
	assert.Equal(t, 3, sleeps)
}

func TestProcessRejectPacing(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)
	sleeps := 0
	r.Sleep = func(time.Duration) { sleeps++ }

	actions := []model.IssueAction{
		{Number: 5, Type: model.ActionReject, Reason: model.ReasonNotFound, Identity: "ghost/repo"},
	}

	r.Process(context.Background(), actions)
	assert.Equal(t, 2, sleeps, "pauses between the three calls only")
}

func TestProcessContinuesAfterFailure(t *testing.T) {
	m := &fakeMutator{failOn: "close:1"}
	r := newRunnerForTest(m)

	actions := []model.IssueAction{
		{Number: 1, Type: model.ActionCloseValid, Identity: "a/one"},
		{Number: 2, Type: model.ActionCloseValid, Identity: "b/two"},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 1, completed, "failed action does not stop the rest")
	assert.Equal(t, []string{"comment:1", "close:1", "comment:2", "close:2"}, m.ops)
}

func TestProcessEmpty(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)

	completed := r.Process(context.Background(), nil)
	assert.Equal(t, 0, completed)
	assert.Empty(t, m.ops)
}

func TestProcessUnknownActionType(t *testing.T) {
	m := &fakeMutator{}
	r := newRunnerForTest(m)

	actions := []model.IssueAction{
		{Number: 9, Type: model.ActionType("bogus")},
	}

	completed := r.Process(context.Background(), actions)
	assert.Equal(t, 0, completed)
	assert.Empty(t, m.ops)
}
