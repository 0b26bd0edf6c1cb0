// Package report derives the daily adoption summary from the
// persisted registry.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/adoptersbot/adopters/internal/model"
)

// Window is the daily UTC hour range [Start, End) across which
// celebration announcements are spread.
type Window struct {
	Start int
	End   int
}

// DefaultWindow is the standard celebration window, 08:00-20:00 UTC.
var DefaultWindow = Window{Start: 8, End: 20}

// CelebrationHour assigns the announcement hour for the item at
// 0-based index i of n items: hours are spread evenly across the
// window by centering each item in its share of the range.
func CelebrationHour(w Window, n, i int) int {
	span := float64(w.End - w.Start)
	return w.Start + int(math.Floor(span/float64(n)*(float64(i)+0.5)))
}

// NewYesterday returns the entries whose date_added equals the given
// date, sorted by stars descending. The input is not mutated.
func NewYesterday(entries []model.AdopterEntry, date string) []model.AdopterEntry {
	var fresh []model.AdopterEntry
	for _, e := range entries {
		if e.DateAdded == date {
			fresh = append(fresh, e)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Stars > fresh[j].Stars
	})
	return fresh
}

// FormatAdoptionTxt renders the plain-text daily summary: total count,
// yesterday's UTC date, the number of entries added yesterday, and a
// celebrate section with one zero-padded-hour line per new entry.
func FormatAdoptionTxt(entries []model.AdopterEntry, yesterday string, w Window) string {
	fresh := NewYesterday(entries, yesterday)

	var b strings.Builder
	fmt.Fprintf(&b, "count: %d\n", len(entries))
	fmt.Fprintf(&b, "yesterday: %s\n", yesterday)
	fmt.Fprintf(&b, "new_yesterday: %d\n", len(fresh))
	b.WriteString("celebrate:\n")
	for i, e := range fresh {
		hour := CelebrationHour(w, len(fresh), i)
		fmt.Fprintf(&b, "  %02d:00 %s (%d stars)\n", hour, e.FullName, e.Stars)
	}
	return b.String()
}

// Yesterday returns the UTC date one day before now, formatted as the
// registry's date_added values are.
func Yesterday(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
}

// Generator reads the persisted registry and produces the daily
// summary.
type Generator struct {
	Store  RegistryReader
	Window Window
}

// RegistryReader is the subset of the registry store the generator needs.
type RegistryReader interface {
	Load() ([]model.AdopterEntry, error)
}

// Generate renders the summary for the day before now.
func (g *Generator) Generate(now time.Time) (string, error) {
	entries, err := g.Store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load registry: %w", err)
	}

	w := g.Window
	if w.End <= w.Start {
		w = DefaultWindow
	}
	return FormatAdoptionTxt(entries, Yesterday(now), w), nil
}
