package verify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/adoptersbot/adopters/internal/model"
)

// markerURLRe captures owner, repo, and the blob path from a full
// GitHub file URL. The path capture starts with the ref segment.
var markerURLRe = regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)/([A-Za-z0-9._-]+)/(?:blob|tree|raw)/([^\s<>"')\]]+)`)

// anyURLRe matches any URL, used to blank URLs out of the text before
// looking for a bare owner/repo token.
var anyURLRe = regexp.MustCompile(`https?://\S+`)

// bareIdentityRe matches a bare owner/repo token: alphanumeric
// segments that may contain dots and hyphens internally.
var bareIdentityRe = regexp.MustCompile(`(^|\s)([A-Za-z0-9](?:[A-Za-z0-9.-]*[A-Za-z0-9])?)/([A-Za-z0-9](?:[A-Za-z0-9.-]*[A-Za-z0-9])?)`)

// trailingPunct is stripped from the final path segment before
// comparing it to the marker filename, so sentences like "see
// https://github.com/o/r/blob/main/ADOPTERS.md." still parse.
const trailingPunct = ".,;:!?)]}>'\""

// ParseSubmission extracts a repository reference from free text.
// It first tries a full GitHub file URL whose decoded final path
// segment equals the marker filename; failing that, it strips all
// URLs and looks for a bare owner/repo token, defaulting the file
// path to the marker filename. Returns nil if neither form matches.
func ParseSubmission(text, marker string) *model.ParsedSubmission {
	if sub := parseMarkerURL(text, marker); sub != nil {
		return sub
	}
	return parseBareIdentity(text, marker)
}

func parseMarkerURL(text, marker string) *model.ParsedSubmission {
	m := markerURLRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	owner, repo, rest := m[1], m[2], m[3]

	segs := strings.Split(rest, "/")
	last := segs[len(segs)-1]
	if dec, err := url.PathUnescape(last); err == nil {
		last = dec
	}
	last = strings.TrimRight(last, trailingPunct)
	if !strings.EqualFold(last, marker) {
		return nil
	}
	segs[len(segs)-1] = last

	// The first segment of a blob path is the ref; the file path is
	// everything after it.
	filePath := marker
	if len(segs) > 1 {
		filePath = strings.Join(segs[1:], "/")
	}

	return &model.ParsedSubmission{
		Identity: owner + "/" + repo,
		FilePath: filePath,
	}
}

func parseBareIdentity(text, marker string) *model.ParsedSubmission {
	stripped := anyURLRe.ReplaceAllString(text, " ")
	m := bareIdentityRe.FindStringSubmatch(stripped)
	if m == nil {
		return nil
	}
	return &model.ParsedSubmission{
		Identity: m[2] + "/" + m[3],
		FilePath: marker,
	}
}
