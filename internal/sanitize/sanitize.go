// Package sanitize is the single normalization boundary between
// untrusted input (search results, issue text, repository metadata,
// a previously persisted registry) and the registry that gets written
// to disk. Every field passes through exactly one of the typed
// normalizers below; anything that does not validate collapses to an
// explicit default.
package sanitize

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/adoptersbot/adopters/internal/model"
)

// maxTextLen is the length cap applied to every text field, in runes.
const maxTextLen = 200

// Elements whose text content is discarded along with the tags.
var dropContent = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"iframe":   true,
	"noscript": true,
	"object":   true,
	"embed":    true,
}

// escapedAngleRe matches residual escaped angle-bracket sequences
// (the literal six-character \u003c / \u003e forms, either case)
// left behind by JSON-style escaping.
var escapedAngleRe = regexp.MustCompile(`(?i)\\u003[ce]`)

// Text normalizes an untrusted value into display-safe text: nil
// becomes "", non-strings are coerced, markup is stripped structurally
// (disallowed tags drop their content too), escaped and literal angle
// brackets are removed, and the result is capped at 200 runes.
// Text is idempotent.
func Text(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}

	s = stripMarkup(s)
	s = escapedAngleRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")

	runes := []rune(s)
	if len(runes) > maxTextLen {
		s = string(runes[:maxTextLen])
	}
	return s
}

// stripMarkup removes HTML tags with a real tokenizer rather than a
// regex, so nested, malformed, and case-variant markup cannot slip
// through. Content of script-like elements is dropped entirely.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	depth := 0 // nesting depth inside content-discarding elements
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if dropContent[string(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if dropContent[string(name)] && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// URL validates an untrusted URL against a prefix allow-list. The
// value must be a string starting with one of the allowed prefixes,
// parse as an https URL without embedded userinfo (which would defeat
// the host check, e.g. "https://github.com@evil.com"), and resolve to
// a hostname from the prefixes themselves. Valid URLs are returned
// unchanged, with no re-encoding; everything else returns "".
func URL(v any, allowedPrefixes []string) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}

	prefixOK := false
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(s, p) {
			prefixOK = true
			break
		}
	}
	if !prefixOK {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if u.Scheme != "https" {
		return ""
	}
	if u.User != nil {
		return ""
	}
	if !hostAllowed(u.Hostname(), allowedPrefixes) {
		return ""
	}
	return s
}

// hostAllowed checks the hostname against the hosts of the allowed
// prefixes, so the allow-set is always tied to the prefix list.
func hostAllowed(host string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		pu, err := url.Parse(p)
		if err != nil {
			continue
		}
		if strings.EqualFold(host, pu.Hostname()) {
			return true
		}
	}
	return false
}

// Stars normalizes an untrusted star count: finite numbers are floored
// and clamped at zero; strings, NaN, infinities, and missing values
// all collapse to 0.
func Stars(v any) int {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0
		}
		return n
	case int32:
		if n < 0 {
			return 0
		}
		return int(n)
	case int64:
		if n < 0 {
			return 0
		}
		return int(n)
	case float32:
		return floorStars(float64(n))
	case float64:
		return floorStars(n)
	default:
		return 0
	}
}

func floorStars(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := int(math.Floor(f))
	if n < 0 {
		return 0
	}
	return n
}

// Field-specific URL allow-lists. Avatars may come from either GitHub
// host; repository and file URLs only ever point at github.com.
var (
	avatarPrefixes = []string{
		"https://avatars.githubusercontent.com/",
		"https://github.com/",
	}
	repoPrefixes = []string{
		"https://github.com/",
	}
)

// Entry sanitizes one adopter record. It accepts either a typed entry
// or a decoded JSON object; anything else returns nil. Every text
// field goes through Text, stars through Stars, and each URL-bearing
// field through URL with its field-specific allow-list.
func Entry(v any) *model.AdopterEntry {
	switch e := v.(type) {
	case model.AdopterEntry:
		return sanitizeEntry(rawFromEntry(e))
	case *model.AdopterEntry:
		if e == nil {
			return nil
		}
		return sanitizeEntry(rawFromEntry(*e))
	case map[string]any:
		return sanitizeEntry(e)
	default:
		return nil
	}
}

func rawFromEntry(e model.AdopterEntry) map[string]any {
	return map[string]any{
		"owner":          e.Owner,
		"repo":           e.Repo,
		"full_name":      e.FullName,
		"description":    e.Description,
		"stars":          e.Stars,
		"language":       e.Language,
		"avatar":         e.Avatar,
		"url":            e.URL,
		"default_branch": e.DefaultBranch,
		"file_url":       e.FileURL,
		"file_path":      e.FilePath,
		"date_added":     e.DateAdded,
	}
}

func sanitizeEntry(raw map[string]any) *model.AdopterEntry {
	return &model.AdopterEntry{
		Owner:         Text(raw["owner"]),
		Repo:          Text(raw["repo"]),
		FullName:      Text(raw["full_name"]),
		Description:   Text(raw["description"]),
		Stars:         Stars(raw["stars"]),
		Language:      Text(raw["language"]),
		Avatar:        URL(raw["avatar"], avatarPrefixes),
		URL:           URL(raw["url"], repoPrefixes),
		DefaultBranch: Text(raw["default_branch"]),
		FileURL:       URL(raw["file_url"], repoPrefixes),
		FilePath:      Text(raw["file_path"]),
		DateAdded:     Text(raw["date_added"]),
	}
}

// Collection sanitizes a list of adopter records. Non-lists yield an
// empty result. Entries that fail to sanitize, or whose canonical URL
// sanitized to "", are dropped.
func Collection(v any) []model.AdopterEntry {
	var items []any
	switch list := v.(type) {
	case []model.AdopterEntry:
		for _, e := range list {
			items = append(items, e)
		}
	case []any:
		items = list
	default:
		return []model.AdopterEntry{}
	}

	out := make([]model.AdopterEntry, 0, len(items))
	for _, item := range items {
		e := Entry(item)
		if e == nil || e.URL == "" {
			continue
		}
		out = append(out, *e)
	}
	return out
}
