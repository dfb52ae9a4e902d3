package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// PR states as reported by the REST API and accepted by the --state flag.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// NoExtension is the extension bucket for files without a suffix.
const NoExtension = "no_extension"

// PullRequest holds the metadata and size counters of a single pull request.
type PullRequest struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	State          string     `json:"state"`
	Draft          bool       `json:"draft"`
	Author         string     `json:"author"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	MergedAt       *time.Time `json:"merged_at"`
	HTMLURL        string     `json:"html_url"`
	Additions      int        `json:"additions"`
	Deletions      int        `json:"deletions"`
	ChangedFiles   int        `json:"changed_files"`
	Commits        int        `json:"commits"`
	Comments       int        `json:"comments"`
	ReviewComments int        `json:"review_comments"`
	Labels         []string   `json:"labels"`
	BaseBranch     string     `json:"base_branch"`
	HeadBranch     string     `json:"head_branch"`

	// HasStats is false when the listing source did not carry the size counters.
	HasStats bool `json:"-"`
}

// Merged reports whether the pull request has been merged.
func (p PullRequest) Merged() bool {
	return p.MergedAt != nil
}

// PRFilter selects which pull requests are returned by a listing.
type PRFilter struct {
	Author       string
	Since        time.Time
	State        string
	MergedOnly   bool
	IncludeDraft bool
}

// Matches applies every filter except the creation date cut-off.
func (f PRFilter) Matches(pr PullRequest) bool {
	if !strings.EqualFold(pr.Author, f.Author) {
		return false
	}
	if f.State != "" && f.State != StateAll && pr.State != f.State {
		return false
	}
	if f.MergedOnly && !pr.Merged() {
		return false
	}
	if !f.IncludeDraft && pr.Draft {
		return false
	}
	return true
}

// ValidateState checks a --state flag value.
func ValidateState(state string) error {
	switch state {
	case StateOpen, StateClosed, StateAll:
		return nil
	}
	return &InvalidStateError{Value: state}
}

// PRReport aggregates an author's pull requests in one repository.
type PRReport struct {
	Repository   string        `json:"repository"`
	Author       string        `json:"author"`
	StartDate    string        `json:"start_date"`
	StateFilter  string        `json:"state_filter"`
	TotalPRs     int           `json:"total_prs"`
	OpenPRs      int           `json:"open_prs"`
	ClosedPRs    int           `json:"closed_prs"`
	MergedPRs    int           `json:"merged_prs"`
	DraftPRs     int           `json:"draft_prs"`
	MergeRate    float64       `json:"merge_rate"`
	PullRequests []PullRequest `json:"pull_requests"`
}

// FileChange is a single file touched by a pull request.
type FileChange struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"`
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Changes          int    `json:"changes"`
	BlobURL          string `json:"blob_url,omitempty"`
	RawURL           string `json:"raw_url,omitempty"`
	ContentsURL      string `json:"contents_url,omitempty"`
	Patch            string `json:"patch,omitempty"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// Extension returns the file suffix including the dot, or NoExtension.
func (f FileChange) Extension() string {
	if ext := filepath.Ext(f.Filename); ext != "" {
		return ext
	}
	return NoExtension
}

// ExtensionStat sums the changes of every file sharing one extension.
type ExtensionStat struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Net is additions minus deletions.
func (e ExtensionStat) Net() int {
	return e.Additions - e.Deletions
}

// PRFiles holds one pull request together with its changed files.
type PRFiles struct {
	Number            int          `json:"number"`
	Title             string       `json:"title"`
	State             string       `json:"state"`
	Draft             bool         `json:"draft"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	ClosedAt          *time.Time   `json:"closed_at"`
	MergedAt          *time.Time   `json:"merged_at"`
	HTMLURL           string       `json:"html_url"`
	TotalFilesChanged int          `json:"total_files_changed"`
	TotalAdditions    int          `json:"total_additions"`
	TotalDeletions    int          `json:"total_deletions"`
	Files             []FileChange `json:"files"`
}

// PRFilesReport aggregates the file changes of an author's pull requests.
type PRFilesReport struct {
	Repository        string          `json:"repository"`
	Author            string          `json:"author"`
	StartDate         string          `json:"start_date"`
	StateFilter       string          `json:"state_filter"`
	MergedOnly        bool            `json:"merged_only"`
	IncludeDraft      bool            `json:"include_draft"`
	TotalPRs          int             `json:"total_prs"`
	TotalFilesChanged int             `json:"total_files_changed"`
	TotalAdditions    int             `json:"total_additions"`
	TotalDeletions    int             `json:"total_deletions"`
	ExtensionStats    []ExtensionStat `json:"file_extension_stats"`
	PullRequests      []PRFiles       `json:"pull_requests"`
}
