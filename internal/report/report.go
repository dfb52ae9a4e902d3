// Package report renders aggregate reports as console text and JSON files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/naka-gawa/repo-stats/internal/domain"
)

// DefaultTopN is the number of commits listed in the LOC summary.
const DefaultTopN = 10

const (
	wideRule   = 60
	filesRule  = 70
	titleWidth = 50
)

// WriteLOCSummary writes the fixed-width LOC summary followed by the top-N commits.
func WriteLOCSummary(w io.Writer, r *domain.LOCReport, topN int) {
	heavy := strings.Repeat("=", wideRule)
	light := strings.Repeat("-", wideRule)

	fmt.Fprintln(w)
	fmt.Fprintln(w, heavy)
	fmt.Fprintln(w, "LOC ANALYSIS SUMMARY")
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "Repository: %s\n", r.Repository)
	fmt.Fprintf(w, "Author: %s\n", r.Author)
	fmt.Fprintf(w, "Analysis period: From %s to present\n", r.StartDate)
	fmt.Fprintf(w, "Total commits: %d\n", r.TotalCommits)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Commits listed: %d, analyzed: %d, skipped: %d (detail fetch failed)\n",
			r.ListedCommits, r.TotalCommits, len(r.Skipped))
	}
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "Total additions: %s lines\n", humanize.Comma(int64(r.TotalAdditions)))
	fmt.Fprintf(w, "Total deletions: %s lines\n", humanize.Comma(int64(r.TotalDeletions)))
	fmt.Fprintf(w, "Total changes: %s lines\n", humanize.Comma(int64(r.TotalChanges)))
	fmt.Fprintln(w, light)
	if r.TotalCommits > 0 {
		fmt.Fprintf(w, "Average changes per commit: %.1f lines\n", r.AverageChanges)
		fmt.Fprintf(w, "Median changes per commit: %.1f lines\n", r.MedianChanges)
		fmt.Fprintf(w, "90th percentile changes per commit: %.1f lines\n", r.P90Changes)
	}

	fmt.Fprintf(w, "\nTop %d commits by changes:\n", topN)
	for i, c := range r.Top(topN) {
		fmt.Fprintf(w, "%2d. %s (%4d changes) - %s...\n", i+1, c.ShortSHA(), c.Total, truncate(c.Message, titleWidth))
	}
}

// WritePRSummary writes the pull request counters, the PR numbers in rows of
// ten and the ten most recent pull requests.
func WritePRSummary(w io.Writer, r *domain.PRReport) {
	heavy := strings.Repeat("=", wideRule)
	light := strings.Repeat("-", wideRule)

	fmt.Fprintln(w)
	fmt.Fprintln(w, heavy)
	fmt.Fprintln(w, "PULL REQUESTS ANALYSIS SUMMARY")
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "Repository: %s\n", r.Repository)
	fmt.Fprintf(w, "Author: %s\n", r.Author)
	fmt.Fprintf(w, "Analysis period: From %s to present\n", r.StartDate)
	fmt.Fprintf(w, "State filter: %s\n", r.StateFilter)
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "Total PRs: %d\n", r.TotalPRs)
	fmt.Fprintf(w, "Open PRs: %d\n", r.OpenPRs)
	fmt.Fprintf(w, "Closed PRs: %d\n", r.ClosedPRs)
	fmt.Fprintf(w, "Merged PRs: %d\n", r.MergedPRs)
	fmt.Fprintf(w, "Draft PRs: %d\n", r.DraftPRs)
	fmt.Fprintln(w, light)
	if r.TotalPRs > 0 {
		fmt.Fprintf(w, "Merge rate: %.1f%%\n", r.MergeRate)
	}

	fmt.Fprintln(w, "\nPR Numbers (most recent first):")
	numbers := make([]string, 0, len(r.PullRequests))
	for _, pr := range r.PullRequests {
		numbers = append(numbers, fmt.Sprint(pr.Number))
	}
	for start := 0; start < len(numbers); start += 10 {
		end := min(start+10, len(numbers))
		fmt.Fprintf(w, "  %s\n", strings.Join(numbers[start:end], ", "))
	}

	fmt.Fprintln(w, "\nRecent PRs Details:")
	for i, pr := range r.PullRequests[:min(10, len(r.PullRequests))] {
		fmt.Fprintf(w, "%2d. %s #%d%s - %s...%s (+%d/-%d)\n",
			i+1, stateMarker(pr.State), pr.Number, draftText(pr.Draft), truncate(pr.Title, titleWidth),
			mergedText(pr.Merged()), pr.Additions, pr.Deletions)
	}
}

// SaveJSON writes v as indented JSON to path.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func stateMarker(state string) string {
	switch state {
	case domain.StateOpen:
		return "🟢"
	case domain.StateClosed:
		return "🔴"
	}
	return "⚪"
}

func draftText(draft bool) string {
	if draft {
		return " [DRAFT]"
	}
	return ""
}

func mergedText(merged bool) string {
	if merged {
		return " (merged)"
	}
	return ""
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// signedComma formats n with thousands separators and an explicit sign.
func signedComma(n int) string {
	if n > 0 {
		return "+" + humanize.Comma(int64(n))
	}
	return humanize.Comma(int64(n))
}
