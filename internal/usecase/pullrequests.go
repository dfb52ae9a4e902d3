package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"golang.org/x/sync/errgroup"
)

// PRQuery selects the pull requests to report on.
type PRQuery struct {
	Repo         domain.RepoRef
	Author       string
	Since        time.Time
	State        string
	MergedOnly   bool
	IncludeDraft bool
}

func (q PRQuery) filter() domain.PRFilter {
	return domain.PRFilter{
		Author:       q.Author,
		Since:        q.Since,
		State:        q.State,
		MergedOnly:   q.MergedOnly,
		IncludeDraft: q.IncludeDraft,
	}
}

// PullRequests lists the author's pull requests and counts them by state.
// Listings without size counters are completed from the per-PR detail endpoint.
func (a *Aggregator) PullRequests(ctx context.Context, q PRQuery) (*domain.PRReport, error) {
	if err := domain.ValidateState(q.State); err != nil {
		return nil, err
	}
	a.logger.Verbosef("Analyzing Pull Requests for repository: %s, author: %s, state: %s", q.Repo, q.Author, q.State)

	prs, err := a.fetcher.ListPullRequests(ctx, q.Repo, q.filter())
	if err != nil {
		return nil, err
	}
	if err := a.completeStats(ctx, q.Repo, prs); err != nil {
		return nil, err
	}

	report := SummarizePullRequests(q.Repo.String(), q.Author, q.Since.Format(config.DateLayout), q.State, prs)
	a.logger.Verbosef("Usecase: Aggregation complete.")
	return report, nil
}

// completeStats fills in size counters in place for PRs listed without them.
// HTTP status failures are warned about and leave the counters at zero; see fatal.
func (a *Aggregator) completeStats(ctx context.Context, repo domain.RepoRef, prs []domain.PullRequest) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i := range prs {
		if prs[i].HasStats {
			continue
		}
		eg.Go(func() error {
			a.logger.Verbosef("Processing PR %d/%d: #%d...", i+1, len(prs), prs[i].Number)
			detail, err := a.fetcher.FetchPullRequest(egCtx, repo, prs[i].Number)
			if err != nil {
				if fatal(err) {
					return err
				}
				a.logger.Warnf("could not fetch details for PR #%d: %v", prs[i].Number, err)
				return nil
			}
			prs[i].Additions = detail.Additions
			prs[i].Deletions = detail.Deletions
			prs[i].ChangedFiles = detail.ChangedFiles
			prs[i].Commits = detail.Commits
			prs[i].Comments = detail.Comments
			prs[i].ReviewComments = detail.ReviewComments
			prs[i].HasStats = true
			return nil
		})
	}
	return eg.Wait()
}

// SummarizePullRequests counts pull requests by state and orders them by number, newest first.
func SummarizePullRequests(repository, author, startDate, state string, prs []domain.PullRequest) *domain.PRReport {
	report := &domain.PRReport{
		Repository:   repository,
		Author:       author,
		StartDate:    startDate,
		StateFilter:  state,
		TotalPRs:     len(prs),
		PullRequests: make([]domain.PullRequest, len(prs)),
	}
	copy(report.PullRequests, prs)

	for _, pr := range prs {
		switch pr.State {
		case domain.StateOpen:
			report.OpenPRs++
		case domain.StateClosed:
			report.ClosedPRs++
			if pr.Merged() {
				report.MergedPRs++
			}
		}
		if pr.Draft {
			report.DraftPRs++
		}
	}
	if report.TotalPRs > 0 {
		report.MergeRate = float64(report.MergedPRs) / float64(report.TotalPRs) * 100
	}

	sort.SliceStable(report.PullRequests, func(i, j int) bool {
		return report.PullRequests[i].Number > report.PullRequests[j].Number
	})
	return report
}
