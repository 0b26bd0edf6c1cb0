// Package model defines the data types shared across the discovery pipeline.
package model

// AdopterEntry is one sanitized record in the persisted adopters registry.
// Entries are unique by FullName.
type AdopterEntry struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	Stars         int    `json:"stars"`
	Language      string `json:"language,omitempty"`
	Avatar        string `json:"avatar"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	FileURL       string `json:"file_url"`
	FilePath      string `json:"file_path"`
	DateAdded     string `json:"date_added"`
}

// Identity returns the "owner/name" identity for the entry.
func (e AdopterEntry) Identity() string {
	return e.FullName
}
