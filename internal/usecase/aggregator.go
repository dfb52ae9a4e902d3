// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/gateway"
	"github.com/naka-gawa/repo-stats/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Aggregator is the use case for aggregating GitHub stats.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher     gateway.Fetcher
	logger      *logger.Logger
	concurrency int
}

// NewAggregator creates a new Aggregator instance.
// concurrency bounds the number of detail requests in flight; values below 1 mean 1.
func NewAggregator(fetcher gateway.Fetcher, log *logger.Logger, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		fetcher:     fetcher,
		logger:      log,
		concurrency: concurrency,
	}
}

// LOCQuery selects the commits to aggregate.
type LOCQuery struct {
	Repo   domain.RepoRef
	Author string
	Since  time.Time
}

// CommitLOC lists the author's commits, fetches each commit's line counts and
// summarizes them. A detail fetch rejected with an HTTP status is skipped and
// reported; rate limiting and transport failures abort the run.
func (a *Aggregator) CommitLOC(ctx context.Context, q LOCQuery) (*domain.LOCReport, error) {
	a.logger.Verbosef("Analyzing LOC for repository: %s, author: %s, start date: %s", q.Repo, q.Author, q.Since.Format(config.DateLayout))

	refs, err := a.fetcher.ListCommits(ctx, q.Repo, q.Author, q.Since)
	if err != nil {
		return nil, err
	}
	a.logger.Verbosef("Fetching detailed statistics for %d commits...", len(refs))

	// Slots are indexed by listing position so fetch completion order never leaks into the report.
	records := make([]*domain.CommitRecord, len(refs))
	failures := make([]error, len(refs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i, ref := range refs {
		eg.Go(func() error {
			a.logger.Verbosef("Processing commit %d/%d: %s...", i+1, len(refs), shortSHA(ref.SHA))
			additions, deletions, err := a.fetcher.FetchCommitStats(egCtx, q.Repo, ref.SHA)
			if err != nil {
				if fatal(err) {
					return err
				}
				failures[i] = err
				return nil
			}
			record := domain.NewCommitRecord(ref, additions, deletions)
			records[i] = &record
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.NetworkError{Err: err}
	}

	fetched := make([]domain.CommitRecord, 0, len(refs))
	var skipped []domain.SkippedCommit
	for i, ref := range refs {
		if failures[i] != nil {
			a.logger.Warnf("could not fetch stats for commit %s, skipping: %v", shortSHA(ref.SHA), failures[i])
			skipped = append(skipped, domain.SkippedCommit{SHA: ref.SHA, Reason: failures[i].Error()})
			continue
		}
		fetched = append(fetched, *records[i])
	}

	report := Summarize(q.Repo.String(), q.Author, q.Since.Format(config.DateLayout), fetched)
	report.ListedCommits = len(refs)
	report.Skipped = skipped
	a.logger.Verbosef("Usecase: Aggregation complete.")
	return report, nil
}

// Summarize is a pure function turning commit records (in listing order) into a report.
// Commits are sorted by total changes descending; ties keep their listing order.
// The input slice is not modified.
func Summarize(repository, author, startDate string, records []domain.CommitRecord) *domain.LOCReport {
	report := &domain.LOCReport{
		Repository:    repository,
		Author:        author,
		StartDate:     startDate,
		ListedCommits: len(records),
		TotalCommits:  len(records),
		Commits:       make([]domain.CommitRecord, len(records)),
	}
	copy(report.Commits, records)

	totals := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		report.TotalAdditions += r.Additions
		report.TotalDeletions += r.Deletions
		totals = append(totals, float64(r.Total))
	}
	report.TotalChanges = report.TotalAdditions + report.TotalDeletions

	if len(records) > 0 {
		report.AverageChanges = float64(report.TotalChanges) / float64(len(records))
		// Errors only occur on empty input, which is excluded above.
		report.MedianChanges, _ = totals.Median()
		report.P90Changes, _ = totals.Percentile(90)
	}

	sort.SliceStable(report.Commits, func(i, j int) bool {
		return report.Commits[i].Total > report.Commits[j].Total
	})
	return report
}

// fatal reports whether a detail fetch error ends the run instead of skipping one item.
func fatal(err error) bool {
	var rateErr *domain.RateLimitError
	var netErr *domain.NetworkError
	return errors.As(err, &rateErr) || errors.As(err, &netErr)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
