// Package discover filters, deduplicates, and merges raw discovery
// results from the two independent sources (code search and verified
// issue submissions) into one canonical identity set.
package discover

import (
	"path"
	"strings"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
)

// SpamThreshold is the per-identity hit count above which an identity
// is flagged in the logs. Dedup, not filtering, handles repeated
// legitimate paths, so flagged identities are still included.
const SpamThreshold = 10

// FilterAndDeduplicate keeps only hits whose final path segment equals
// the marker filename (case-insensitively, exact match), then reduces
// them to one hit per repository identity, keeping the first
// occurrence so input order is preserved. Occurrence counts are scoped
// to this call; identities exceeding SpamThreshold are logged but not
// excluded.
func FilterAndDeduplicate(hits []model.SearchHit, marker string) []model.SearchHit {
	counts := make(map[string]int)
	var kept []model.SearchHit

	for _, hit := range hits {
		if !strings.EqualFold(path.Base(hit.Path), marker) {
			continue
		}
		counts[hit.Identity]++
		if counts[hit.Identity] == 1 {
			kept = append(kept, hit)
		}
	}

	for _, hit := range kept {
		if n := counts[hit.Identity]; n > SpamThreshold {
			log.Warn("identity exceeds spam threshold, keeping first hit",
				"identity", hit.Identity,
				"occurrences", n,
				"threshold", SpamThreshold)
		}
	}

	log.Info("filtered and deduplicated search hits",
		"raw", len(hits),
		"kept", len(kept))
	return kept
}

// Merge returns primary concatenated with every secondary hit whose
// identity is not already present in primary. Primary wins all
// conflicts; neither input slice is mutated.
func Merge(primary, secondary []model.SearchHit) []model.SearchHit {
	seen := make(map[string]bool, len(primary))
	for _, hit := range primary {
		seen[hit.Identity] = true
	}

	merged := make([]model.SearchHit, len(primary), len(primary)+len(secondary))
	copy(merged, primary)

	for _, hit := range secondary {
		if seen[hit.Identity] {
			continue
		}
		seen[hit.Identity] = true
		merged = append(merged, hit)
	}
	return merged
}
