package model

import "strings"

// SearchHit is one raw code-search result: a file path inside a repository.
type SearchHit struct {
	Path     string
	Identity string // "owner/name"
}

// SplitIdentity splits an "owner/name" repository identity into its parts.
// It returns ok=false for anything that is not exactly two non-empty
// slash-separated segments.
func SplitIdentity(identity string) (owner, name string, ok bool) {
	parts := strings.Split(identity, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
