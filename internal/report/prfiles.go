package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// maxFilesPerPR caps the file list printed under each pull request.
const maxFilesPerPR = 20

// WritePRFilesSummary writes the file change totals, the per-extension table
// and a block per pull request.
func WritePRFilesSummary(w io.Writer, r *domain.PRFilesReport) error {
	heavy := strings.Repeat("=", filesRule)
	light := strings.Repeat("-", filesRule)

	fmt.Fprintln(w)
	fmt.Fprintln(w, heavy)
	fmt.Fprintln(w, "PULL REQUEST FILE CHANGES SUMMARY")
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "Repository: %s\n", r.Repository)
	fmt.Fprintf(w, "Author: %s\n", r.Author)
	fmt.Fprintf(w, "Analysis period: From %s to present\n", r.StartDate)
	fmt.Fprintf(w, "State filter: %s\n", r.StateFilter)
	fmt.Fprintf(w, "Merged only: %v\n", r.MergedOnly)
	fmt.Fprintf(w, "Include draft: %v\n", r.IncludeDraft)
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "Total PRs analyzed: %d\n", r.TotalPRs)
	fmt.Fprintf(w, "Total files changed: %d\n", r.TotalFilesChanged)
	fmt.Fprintf(w, "Total lines added: %s\n", humanize.Comma(int64(r.TotalAdditions)))
	fmt.Fprintf(w, "Total lines deleted: %s\n", humanize.Comma(int64(r.TotalDeletions)))
	fmt.Fprintf(w, "Net change: %s lines\n", signedComma(r.TotalAdditions-r.TotalDeletions))

	if len(r.ExtensionStats) > 0 {
		fmt.Fprintln(w, "\nFile changes by extension:")
		if err := writeExtensionTable(w, r.ExtensionStats); err != nil {
			return err
		}
	}

	if len(r.PullRequests) > 0 {
		fmt.Fprintln(w, "\nPull request details:")
	}
	for i, pr := range r.PullRequests {
		fmt.Fprintf(w, "\n%d. %s PR #%d%s%s\n", i+1, stateMarker(pr.State), pr.Number, draftText(pr.Draft), mergedText(pr.MergedAt != nil))
		fmt.Fprintf(w, "   Title: %s\n", pr.Title)
		fmt.Fprintf(w, "   URL: %s\n", pr.HTMLURL)
		fmt.Fprintf(w, "   Files: %d, Added: +%d, Deleted: -%d\n", pr.TotalFilesChanged, pr.TotalAdditions, pr.TotalDeletions)
		if len(pr.Files) == 0 {
			continue
		}
		fmt.Fprintln(w, "   Changed files:")
		for _, f := range pr.Files[:min(maxFilesPerPR, len(pr.Files))] {
			fmt.Fprintf(w, "      %s %s (%s)\n", fileStatusIcon(f.Status), f.Filename, fileChangeText(f))
		}
		if len(pr.Files) > maxFilesPerPR {
			fmt.Fprintf(w, "      ... and %d more files\n", len(pr.Files)-maxFilesPerPR)
		}
	}
	return nil
}

// writeExtensionTable renders the per-extension statistics with the tablewriter API.
func writeExtensionTable(w io.Writer, stats []domain.ExtensionStat) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Extension", "Files", "Added", "Deleted", "Net"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(stats))
	for _, s := range stats {
		data = append(data, []string{
			s.Extension,
			strconv.Itoa(s.Count),
			signedComma(s.Additions),
			signedComma(-s.Deletions),
			signedComma(s.Net()),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func fileStatusIcon(status string) string {
	switch status {
	case "added":
		return "+"
	case "removed":
		return "-"
	case "renamed":
		return "→"
	}
	return "~"
}

func fileChangeText(f domain.FileChange) string {
	text := fmt.Sprintf("+%d/-%d", f.Additions, f.Deletions)
	if f.Status == "renamed" && f.PreviousFilename != "" {
		text += ", from " + f.PreviousFilename
	}
	return text
}
