package verify

import (
	"testing"
)

func TestParseSubmissionMarkerURL(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantID   string
		wantPath string
	}{
		{
			"plain blob url",
			"Please add https://github.com/acme/widgets/blob/main/ADOPTERS.md",
			"acme/widgets",
			"ADOPTERS.md",
		},
		{
			"nested path",
			"see https://github.com/acme/widgets/blob/main/docs/ADOPTERS.md thanks",
			"acme/widgets",
			"docs/ADOPTERS.md",
		},
		{
			"trailing period",
			"Our file is at https://github.com/acme/widgets/blob/main/ADOPTERS.md.",
			"acme/widgets",
			"ADOPTERS.md",
		},
		{
			"www and http",
			"http://www.github.com/acme/widgets/blob/main/ADOPTERS.md",
			"acme/widgets",
			"ADOPTERS.md",
		},
		{
			"tree url",
			"https://github.com/acme/widgets/tree/main/ADOPTERS.md",
			"acme/widgets",
			"ADOPTERS.md",
		},
		{
			"case-insensitive filename",
			"https://github.com/acme/widgets/blob/main/adopters.MD",
			"acme/widgets",
			"adopters.MD",
		},
		{
			"percent-encoded segment",
			"https://github.com/acme/widgets/blob/main/ADOPTERS%2Emd",
			"acme/widgets",
			"ADOPTERS.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSubmission(tt.text, "ADOPTERS.md")
			if got == nil {
				t.Fatal("expected a parsed submission")
			}
			if got.Identity != tt.wantID {
				t.Errorf("identity = %q, want %q", got.Identity, tt.wantID)
			}
			if got.FilePath != tt.wantPath {
				t.Errorf("file path = %q, want %q", got.FilePath, tt.wantPath)
			}
		})
	}
}

func TestParseSubmissionBareIdentity(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID string
	}{
		{"plain", "Please add acme/widgets to the registry", "acme/widgets"},
		{"start of text", "acme/widgets adopted this", "acme/widgets"},
		{"dotted repo", "we use acme/widgets.js daily", "acme/widgets.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSubmission(tt.text, "ADOPTERS.md")
			if got == nil {
				t.Fatal("expected a parsed submission")
			}
			if got.Identity != tt.wantID {
				t.Errorf("identity = %q, want %q", got.Identity, tt.wantID)
			}
			if got.FilePath != "ADOPTERS.md" {
				t.Errorf("file path = %q, want marker default", got.FilePath)
			}
		})
	}
}

func TestParseSubmissionURLWinsOverBareIdentity(t *testing.T) {
	text := "other/repo mentioned, but the file is https://github.com/acme/widgets/blob/main/ADOPTERS.md"
	got := ParseSubmission(text, "ADOPTERS.md")
	if got == nil {
		t.Fatal("expected a parsed submission")
	}
	if got.Identity != "acme/widgets" {
		t.Errorf("identity = %q, want acme/widgets", got.Identity)
	}
}

func TestParseSubmissionURLsStrippedBeforeBareMatch(t *testing.T) {
	// A URL pointing at the wrong file must not leak path segments
	// into the bare identity match.
	text := "see https://github.com/acme/widgets/blob/main/README.md for details"
	got := ParseSubmission(text, "ADOPTERS.md")
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseSubmissionNoMatch(t *testing.T) {
	tests := []string{
		"",
		"please add my repo",
		"https://example.com/not/github",
		"https://github.com/acme/widgets", // repo link without a file
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			if got := ParseSubmission(text, "ADOPTERS.md"); got != nil {
				t.Errorf("ParseSubmission(%q) = %+v, want nil", text, got)
			}
		})
	}
}
