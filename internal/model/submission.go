package model

// IssueSubmission is a community-filed adoption request issue.
type IssueSubmission struct {
	Number int
	State  string // "open" or "closed"
	Title  string
	Body   string
}

// ParsedSubmission is the repository reference extracted from an
// IssueSubmission's free text.
type ParsedSubmission struct {
	Identity string // "owner/name"
	FilePath string // path to the marker file within the repository
}

// ActionType classifies the housekeeping needed for an open issue.
type ActionType string

const (
	// ActionCloseValid closes an issue whose submission was verified.
	ActionCloseValid ActionType = "close-valid"
	// ActionReject closes an issue whose submission could not be verified.
	ActionReject ActionType = "reject"
)

// RejectReason explains why a submission was rejected.
type RejectReason string

const (
	// ReasonNotFound means the referenced marker file does not exist.
	ReasonNotFound RejectReason = "not-found"
	// ReasonUnparseable means no repository reference could be extracted.
	ReasonUnparseable RejectReason = "unparseable"
)

// IssueAction is one pending housekeeping action for an open issue.
type IssueAction struct {
	Number   int
	Type     ActionType
	Identity string       // set when a repository reference was parsed
	Reason   RejectReason // set for ActionReject
}
