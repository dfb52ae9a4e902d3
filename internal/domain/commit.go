// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"time"
)

// RepoRef identifies a single repository on the hosting platform.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns the "owner/name" form used in reports and search queries.
func (r RepoRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// CommitRef is the minimal commit information returned by the listing endpoint.
type CommitRef struct {
	SHA         string
	AuthorLogin string
	Date        time.Time
	Message     string
}

// CommitRecord holds the line-change statistics of a single commit.
// It is the core domain entity of the LOC report.
type CommitRecord struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author,omitempty"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
	Total     int       `json:"total_changes"`
}

// NewCommitRecord combines a listed commit with its detail counters.
func NewCommitRecord(ref CommitRef, additions, deletions int) CommitRecord {
	return CommitRecord{
		SHA:       ref.SHA,
		Author:    ref.AuthorLogin,
		Message:   ref.Message,
		Date:      ref.Date,
		Additions: additions,
		Deletions: deletions,
		Total:     additions + deletions,
	}
}

// ShortSHA returns the first eight characters of the commit SHA.
func (c CommitRecord) ShortSHA() string {
	if len(c.SHA) > 8 {
		return c.SHA[:8]
	}
	return c.SHA
}

// SkippedCommit records a commit whose detail fetch failed and was left out of the totals.
type SkippedCommit struct {
	SHA    string `json:"sha"`
	Reason string `json:"reason"`
}

// LOCReport is the aggregate of one author's commits in one repository.
// TotalCommits counts the analyzed commits; ListedCommits also counts skipped ones.
type LOCReport struct {
	Repository     string          `json:"repository"`
	Author         string          `json:"author"`
	StartDate      string          `json:"start_date"`
	ListedCommits  int             `json:"listed_commits"`
	TotalCommits   int             `json:"total_commits"`
	TotalAdditions int             `json:"total_additions"`
	TotalDeletions int             `json:"total_deletions"`
	TotalChanges   int             `json:"total_changes"`
	AverageChanges float64         `json:"average_changes_per_commit"`
	MedianChanges  float64         `json:"median_changes_per_commit"`
	P90Changes     float64         `json:"p90_changes_per_commit"`
	Commits        []CommitRecord  `json:"commits"`
	Skipped        []SkippedCommit `json:"skipped_commits,omitempty"`
}

// Top returns the n commits with the most changes.
// Commits are already ordered, so this is a prefix of the full list.
func (r *LOCReport) Top(n int) []CommitRecord {
	if n < 0 || n > len(r.Commits) {
		n = len(r.Commits)
	}
	return r.Commits[:n]
}
