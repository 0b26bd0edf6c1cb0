// Package pipeline sequences the discovery run: search, filter,
// verify, merge, fetch metadata, sanitize, reconcile history, persist,
// and finally run issue housekeeping.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/adoptersbot/adopters/internal/discover"
	"github.com/adoptersbot/adopters/internal/gh"
	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
	"github.com/adoptersbot/adopters/internal/registry"
	"github.com/adoptersbot/adopters/internal/retry"
	"github.com/adoptersbot/adopters/internal/sanitize"
	"github.com/adoptersbot/adopters/internal/verify"
)

// ErrNoAdopters aborts a run whose final entry set is empty, whether
// nothing was discovered or nothing survived fetching and
// sanitization, so a spurious empty result can never destroy the
// existing registry.
var ErrNoAdopters = errors.New("no adopters survived the run, refusing to overwrite registry")

// Source is the subset of the GitHub layer the pipeline consumes.
type Source interface {
	SearchMarkerFiles(ctx context.Context, marker string) ([]model.SearchHit, int, error)
	ListSubmissionIssues(ctx context.Context, label string) ([]model.IssueSubmission, error)
	GetRepository(ctx context.Context, identity string) (*gh.RepoMetadata, error)
}

// RegistryStore is the persistence interface the pipeline consumes.
type RegistryStore interface {
	Load() ([]model.AdopterEntry, error)
	Save(entries []model.AdopterEntry) error
}

// Summary reports what one run did.
type Summary struct {
	SearchHits       int
	SearchTotal      int
	Deduped          int
	Verified         int
	Merged           int
	Persisted        int
	Skipped          int
	ActionsPlanned   int
	ActionsCompleted int
	DryRun           bool
}

// Pipeline is the orchestrator for one discovery run. Execution is
// strictly sequential; the only suspension points are the external
// call boundary inside the executor and the explicit pacing delays.
type Pipeline struct {
	Source   Source
	Store    RegistryStore
	Exec     *retry.Executor
	Verifier *verify.Verifier
	Actions  *verify.ActionRunner

	Marker string
	Label  string
	Pace   time.Duration // delay between per-identity metadata fetches

	Sleep  func(time.Duration) // injectable for tests
	Now    func() time.Time    // injectable for tests
	DryRun bool                // plan everything, write and mutate nothing
}

func (p *Pipeline) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes the full discovery pipeline. Per-item failures are
// logged and skipped; total search or issue-listing failures degrade
// to empty inputs. The only fatal condition besides a failed write is
// an empty result set, at the merge or after sanitization, which
// returns ErrNoAdopters without touching the persisted registry.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{DryRun: p.DryRun}

	// 1. Search; total failure degrades to an empty hit list.
	hits, total := p.search(ctx)
	summary.SearchHits = len(hits)
	summary.SearchTotal = total

	// 2. Filter and deduplicate.
	deduped := discover.FilterAndDeduplicate(hits, p.Marker)
	summary.Deduped = len(deduped)

	// 3. Verify issue submissions, independent of search results.
	verified, actions := p.verifyIssues(ctx)
	summary.Verified = len(verified)
	summary.ActionsPlanned = len(actions)

	// 4. Merge; search wins conflicts.
	issueHits := make([]model.SearchHit, 0, len(verified))
	for _, sub := range verified {
		issueHits = append(issueHits, model.SearchHit{
			Path:     sub.FilePath,
			Identity: sub.Identity,
		})
	}
	merged := discover.Merge(deduped, issueHits)
	summary.Merged = len(merged)

	// 5. Safety invariant: never overwrite the registry with nothing.
	if len(merged) == 0 {
		return summary, ErrNoAdopters
	}

	// 6. Per-identity metadata fetch, paced, skipping failures.
	previous := p.loadPrevious()
	candidates := p.fetchEntries(ctx, merged, summary)

	// 7. Sanitize everything headed for the registry.
	entries := sanitize.Collection(candidates)

	// The safety invariant holds here too: if every fetch failed or
	// every entry sanitized away, keep the previous registry intact.
	if len(entries) == 0 {
		return summary, ErrNoAdopters
	}

	// 8. Reconcile date_added against the previous registry.
	dateIdx := registry.DateIndex(previous)
	today := p.now().UTC().Format("2006-01-02")
	for i := range entries {
		if d, ok := dateIdx[entries[i].FullName]; ok {
			entries[i].DateAdded = d
		} else {
			entries[i].DateAdded = today
		}
	}

	// 9. Sort by stars descending.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Stars > entries[j].Stars
	})
	summary.Persisted = len(entries)

	if p.DryRun {
		log.Info("dry run, skipping registry write and issue actions",
			"entries", len(entries),
			"actions", len(actions))
		return summary, nil
	}

	// 10. Persist (full overwrite).
	if err := p.Store.Save(entries); err != nil {
		return summary, fmt.Errorf("failed to persist registry: %w", err)
	}

	// 11. Housekeeping runs only after persistence succeeded, so an
	// action failure can never block the registry update.
	summary.ActionsCompleted = p.Actions.Process(ctx, actions)

	log.Info("pipeline complete",
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
		"actions", summary.ActionsCompleted)
	return summary, nil
}

func (p *Pipeline) search(ctx context.Context) ([]model.SearchHit, int) {
	var hits []model.SearchHit
	var total int
	err := p.Exec.Run(ctx, func(ctx context.Context) error {
		h, t, err := p.Source.SearchMarkerFiles(ctx, p.Marker)
		if err != nil {
			return err
		}
		hits, total = h, t
		return nil
	})
	if err != nil {
		log.Warn("search failed, continuing with empty result set", "error", err)
		return nil, 0
	}
	if total >= gh.SearchResultCap {
		log.Warn("search hit the result cap, coverage may be incomplete",
			"total", total,
			"cap", gh.SearchResultCap)
	}
	return hits, total
}

func (p *Pipeline) verifyIssues(ctx context.Context) ([]model.ParsedSubmission, []model.IssueAction) {
	issues, err := retry.Get(ctx, p.Exec, func(ctx context.Context) ([]model.IssueSubmission, error) {
		return p.Source.ListSubmissionIssues(ctx, p.Label)
	})
	if err != nil {
		log.Warn("issue listing failed, continuing without submissions", "error", err)
		return nil, nil
	}
	return p.Verifier.VerifyAll(ctx, issues)
}

func (p *Pipeline) loadPrevious() []model.AdopterEntry {
	previous, err := p.Store.Load()
	if err != nil {
		log.Warn("could not load previous registry, dates start fresh", "error", err)
		return nil
	}
	return previous
}

func (p *Pipeline) fetchEntries(ctx context.Context, merged []model.SearchHit, summary *Summary) []model.AdopterEntry {
	candidates := make([]model.AdopterEntry, 0, len(merged))
	for i, hit := range merged {
		meta, err := retry.Get(ctx, p.Exec, func(ctx context.Context) (*gh.RepoMetadata, error) {
			return p.Source.GetRepository(ctx, hit.Identity)
		})
		if err != nil {
			log.Warn("metadata fetch failed, skipping identity",
				"identity", hit.Identity,
				"error", err)
			summary.Skipped++
		} else if entry := buildEntry(meta, hit.Path); entry == nil {
			log.Warn("metadata incomplete, skipping identity", "identity", hit.Identity)
			summary.Skipped++
		} else {
			candidates = append(candidates, *entry)
		}

		if i < len(merged)-1 {
			p.sleep(p.Pace)
		}
	}
	return candidates
}

// buildEntry constructs a candidate registry entry from repository
// metadata. It returns nil when the owner login or canonical URL is
// missing, since such an entry could never render.
func buildEntry(meta *gh.RepoMetadata, filePath string) *model.AdopterEntry {
	if meta.OwnerLogin == "" || meta.HTMLURL == "" {
		return nil
	}

	fullName := meta.FullName
	if fullName == "" {
		fullName = meta.OwnerLogin + "/" + meta.Name
	}

	branch := meta.DefaultBranch
	if branch == "" {
		branch = "HEAD"
	}

	return &model.AdopterEntry{
		Owner:         meta.OwnerLogin,
		Repo:          meta.Name,
		FullName:      fullName,
		Description:   meta.Description,
		Stars:         meta.Stars,
		Language:      meta.Language,
		Avatar:        meta.AvatarURL,
		URL:           meta.HTMLURL,
		DefaultBranch: meta.DefaultBranch,
		FileURL:       fmt.Sprintf("%s/blob/%s/%s", meta.HTMLURL, branch, filePath),
		FilePath:      filePath,
	}
}
