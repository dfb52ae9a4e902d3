package usecase

import (
	"context"
	"sort"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"golang.org/x/sync/errgroup"
)

// PRFilesQuery selects the pull requests whose files are analyzed.
type PRFilesQuery struct {
	PRQuery
	IncludePatch bool
	// Limit caps the number of most recent PRs analyzed; 0 means no cap.
	Limit int
}

// PullRequestFiles fetches the changed files of the author's pull requests and
// aggregates them per PR and per file extension. A PR whose file listing fails
// is reported with no files, unless rate limiting or a transport failure aborts the run.
func (a *Aggregator) PullRequestFiles(ctx context.Context, q PRFilesQuery) (*domain.PRFilesReport, error) {
	if err := domain.ValidateState(q.State); err != nil {
		return nil, err
	}
	a.logger.Verbosef("Analyzing Pull Request file changes for repository: %s, author: %s, merged only: %v, include draft: %v",
		q.Repo, q.Author, q.MergedOnly, q.IncludeDraft)

	prs, err := a.fetcher.ListPullRequests(ctx, q.Repo, q.filter())
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(prs) > q.Limit {
		prs = prs[:q.Limit]
		a.logger.Verbosef("Limiting analysis to %d most recent PRs", len(prs))
	}

	files := make([][]domain.FileChange, len(prs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i, pr := range prs {
		eg.Go(func() error {
			a.logger.Verbosef("Processing PR %d/%d: #%d - %s", i+1, len(prs), pr.Number, pr.Title)
			changed, err := a.fetcher.FetchPullRequestFiles(egCtx, q.Repo, pr.Number, q.IncludePatch)
			if err != nil {
				if fatal(err) {
					return err
				}
				a.logger.Warnf("could not fetch files for PR #%d: %v", pr.Number, err)
				return nil
			}
			files[i] = changed
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := SummarizePullRequestFiles(prs, files)
	report.Repository = q.Repo.String()
	report.Author = q.Author
	report.StartDate = q.Since.Format(config.DateLayout)
	report.StateFilter = q.State
	report.MergedOnly = q.MergedOnly
	report.IncludeDraft = q.IncludeDraft
	return report, nil
}

// SummarizePullRequestFiles pairs each PR with files[i] and totals them.
// Extension stats are ordered by file count descending, then by extension.
func SummarizePullRequestFiles(prs []domain.PullRequest, files [][]domain.FileChange) *domain.PRFilesReport {
	report := &domain.PRFilesReport{
		TotalPRs:       len(prs),
		ExtensionStats: []domain.ExtensionStat{},
		PullRequests:   make([]domain.PRFiles, 0, len(prs)),
	}
	byExt := make(map[string]*domain.ExtensionStat)

	for i, pr := range prs {
		changed := files[i]
		if changed == nil {
			changed = []domain.FileChange{}
		}
		entry := domain.PRFiles{
			Number:            pr.Number,
			Title:             pr.Title,
			State:             pr.State,
			Draft:             pr.Draft,
			CreatedAt:         pr.CreatedAt,
			UpdatedAt:         pr.UpdatedAt,
			ClosedAt:          pr.ClosedAt,
			MergedAt:          pr.MergedAt,
			HTMLURL:           pr.HTMLURL,
			TotalFilesChanged: len(changed),
			Files:             changed,
		}
		for _, f := range changed {
			entry.TotalAdditions += f.Additions
			entry.TotalDeletions += f.Deletions

			ext := f.Extension()
			stat, ok := byExt[ext]
			if !ok {
				stat = &domain.ExtensionStat{Extension: ext}
				byExt[ext] = stat
			}
			stat.Count++
			stat.Additions += f.Additions
			stat.Deletions += f.Deletions
		}
		report.TotalFilesChanged += entry.TotalFilesChanged
		report.TotalAdditions += entry.TotalAdditions
		report.TotalDeletions += entry.TotalDeletions
		report.PullRequests = append(report.PullRequests, entry)
	}

	for _, stat := range byExt {
		report.ExtensionStats = append(report.ExtensionStats, *stat)
	}
	sort.Slice(report.ExtensionStats, func(i, j int) bool {
		a, b := report.ExtensionStats[i], report.ExtensionStats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Extension < b.Extension
	})
	sort.SliceStable(report.PullRequests, func(i, j int) bool {
		return report.PullRequests[i].Number > report.PullRequests[j].Number
	})
	return report
}
