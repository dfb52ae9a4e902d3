package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mergedAt(day int) *time.Time {
	t := time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSummarizePullRequests(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 3, State: domain.StateClosed, MergedAt: mergedAt(3)},
		{Number: 10, State: domain.StateOpen, Draft: true},
		{Number: 7, State: domain.StateClosed},
		{Number: 8, State: domain.StateClosed, MergedAt: mergedAt(8)},
	}

	report := SummarizePullRequests("o/r", "alice", "2025-01-01", domain.StateAll, prs)

	assert.Equal(t, 4, report.TotalPRs)
	assert.Equal(t, 1, report.OpenPRs)
	assert.Equal(t, 3, report.ClosedPRs)
	assert.Equal(t, 2, report.MergedPRs)
	assert.Equal(t, 1, report.DraftPRs)
	assert.InDelta(t, 50.0, report.MergeRate, 1e-9)
	numbers := make([]int, 0, len(report.PullRequests))
	for _, pr := range report.PullRequests {
		numbers = append(numbers, pr.Number)
	}
	assert.Equal(t, []int{10, 8, 7, 3}, numbers)
	assert.Equal(t, 3, prs[0].Number, "input must not be reordered")

	empty := SummarizePullRequests("o/r", "alice", "2025-01-01", domain.StateAll, nil)
	assert.Equal(t, 0.0, empty.MergeRate)
	assert.Empty(t, empty.PullRequests)
}

func TestAggregator_PullRequests(t *testing.T) {
	filter := domain.PRFilter{Author: "any-user", Since: anySince, State: domain.StateAll, IncludeDraft: true}

	t.Run("listing without stats is completed from detail endpoint", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListPullRequests", mock.Anything, anyRepo, filter).Return([]domain.PullRequest{
			{Number: 2, State: domain.StateOpen},
			{Number: 1, State: domain.StateClosed, MergedAt: mergedAt(1), HasStats: true, Additions: 99},
			{Number: 0, State: domain.StateClosed},
		}, nil)
		fetcher.On("FetchPullRequest", mock.Anything, anyRepo, 2).Return(domain.PullRequest{Number: 2, Additions: 10, Deletions: 4, ChangedFiles: 2, HasStats: true}, nil)
		fetcher.On("FetchPullRequest", mock.Anything, anyRepo, 0).Return(domain.PullRequest{}, &domain.APIError{StatusCode: 502})
		aggregator := NewAggregator(fetcher, logger.Discard(), 2)

		report, err := aggregator.PullRequests(context.Background(), PRQuery{
			Repo: anyRepo, Author: "any-user", Since: anySince, State: domain.StateAll, IncludeDraft: true,
		})

		require.NoError(t, err)
		require.Len(t, report.PullRequests, 3)
		assert.Equal(t, 10, report.PullRequests[0].Additions)
		assert.Equal(t, 2, report.PullRequests[0].ChangedFiles)
		assert.Equal(t, 99, report.PullRequests[1].Additions)
		assert.Equal(t, 0, report.PullRequests[2].Additions)
		assert.Equal(t, 1, report.MergedPRs)
		fetcher.AssertExpectations(t)
		fetcher.AssertNotCalled(t, "FetchPullRequest", mock.Anything, anyRepo, 1)
	})

	t.Run("rate limit while completing stats aborts", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListPullRequests", mock.Anything, anyRepo, filter).Return([]domain.PullRequest{{Number: 5}}, nil)
		fetcher.On("FetchPullRequest", mock.Anything, anyRepo, 5).Return(domain.PullRequest{}, &domain.RateLimitError{})
		aggregator := NewAggregator(fetcher, logger.Discard(), 1)

		report, err := aggregator.PullRequests(context.Background(), PRQuery{
			Repo: anyRepo, Author: "any-user", Since: anySince, State: domain.StateAll, IncludeDraft: true,
		})

		assert.Nil(t, report)
		assert.IsType(t, &domain.RateLimitError{}, err)
	})

	t.Run("network error while completing stats aborts", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListPullRequests", mock.Anything, anyRepo, filter).Return([]domain.PullRequest{{Number: 5}}, nil)
		fetcher.On("FetchPullRequest", mock.Anything, anyRepo, 5).Return(domain.PullRequest{}, &domain.NetworkError{Err: errors.New("i/o timeout")})
		aggregator := NewAggregator(fetcher, logger.Discard(), 1)

		report, err := aggregator.PullRequests(context.Background(), PRQuery{
			Repo: anyRepo, Author: "any-user", Since: anySince, State: domain.StateAll, IncludeDraft: true,
		})

		assert.Nil(t, report)
		assert.IsType(t, &domain.NetworkError{}, err)
	})

	t.Run("invalid state is rejected before any request", func(t *testing.T) {
		fetcher := new(mockFetcher)
		aggregator := NewAggregator(fetcher, logger.Discard(), 1)

		_, err := aggregator.PullRequests(context.Background(), PRQuery{Repo: anyRepo, Author: "any-user", State: "merged"})

		assert.IsType(t, &domain.InvalidStateError{}, err)
		fetcher.AssertNotCalled(t, "ListPullRequests", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSummarizePullRequestFiles(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 4, Title: "four"},
		{Number: 9, Title: "nine"},
		{Number: 6, Title: "six"},
	}
	files := [][]domain.FileChange{
		{
			{Filename: "cmd/main.go", Additions: 10, Deletions: 2},
			{Filename: "Makefile", Additions: 1, Deletions: 1},
		},
		{
			{Filename: "internal/a.go", Additions: 3, Deletions: 0},
			{Filename: "README.md", Additions: 0, Deletions: 7},
		},
		nil,
	}

	report := SummarizePullRequestFiles(prs, files)

	assert.Equal(t, 3, report.TotalPRs)
	assert.Equal(t, 4, report.TotalFilesChanged)
	assert.Equal(t, 14, report.TotalAdditions)
	assert.Equal(t, 10, report.TotalDeletions)
	assert.Equal(t, []domain.ExtensionStat{
		{Extension: ".go", Count: 2, Additions: 13, Deletions: 2},
		{Extension: ".md", Count: 1, Additions: 0, Deletions: 7},
		{Extension: domain.NoExtension, Count: 1, Additions: 1, Deletions: 1},
	}, report.ExtensionStats)
	require.Len(t, report.PullRequests, 3)
	assert.Equal(t, 9, report.PullRequests[0].Number)
	assert.Equal(t, 3, report.PullRequests[0].TotalAdditions)
	assert.Equal(t, 6, report.PullRequests[1].Number)
	assert.Equal(t, 0, report.PullRequests[1].TotalFilesChanged)
	assert.NotNil(t, report.PullRequests[1].Files)
}

func TestAggregator_PullRequestFiles(t *testing.T) {
	filter := domain.PRFilter{Author: "any-user", Since: anySince, State: domain.StateAll, MergedOnly: true}
	fetcher := new(mockFetcher)
	fetcher.On("ListPullRequests", mock.Anything, anyRepo, filter).Return([]domain.PullRequest{
		{Number: 30}, {Number: 20}, {Number: 10},
	}, nil)
	fetcher.On("FetchPullRequestFiles", mock.Anything, anyRepo, 30, true).Return([]domain.FileChange{{Filename: "x.go", Additions: 1}}, nil)
	fetcher.On("FetchPullRequestFiles", mock.Anything, anyRepo, 20, true).Return(nil, &domain.NotFoundError{Resource: "pull request #20"})
	aggregator := NewAggregator(fetcher, logger.Discard(), 3)

	report, err := aggregator.PullRequestFiles(context.Background(), PRFilesQuery{
		PRQuery:      PRQuery{Repo: anyRepo, Author: "any-user", Since: anySince, State: domain.StateAll, MergedOnly: true},
		IncludePatch: true,
		Limit:        2,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalPRs)
	assert.Equal(t, 1, report.TotalFilesChanged)
	assert.True(t, report.MergedOnly)
	assert.False(t, report.IncludeDraft)
	assert.Equal(t, "any-owner/any-repo", report.Repository)
	fetcher.AssertExpectations(t)
	fetcher.AssertNotCalled(t, "FetchPullRequestFiles", mock.Anything, anyRepo, 10, true)
}

func TestAggregator_PullRequestFiles_NetworkErrorAborts(t *testing.T) {
	filter := domain.PRFilter{Author: "any-user", Since: anySince, State: domain.StateAll, MergedOnly: true}
	fetcher := new(mockFetcher)
	fetcher.On("ListPullRequests", mock.Anything, anyRepo, filter).Return([]domain.PullRequest{{Number: 30}}, nil)
	fetcher.On("FetchPullRequestFiles", mock.Anything, anyRepo, 30, false).
		Return(nil, fmt.Errorf("failed to list files of PR #30: %w", &domain.NetworkError{Err: errors.New("EOF")}))
	aggregator := NewAggregator(fetcher, logger.Discard(), 1)

	report, err := aggregator.PullRequestFiles(context.Background(), PRFilesQuery{
		PRQuery: PRQuery{Repo: anyRepo, Author: "any-user", Since: anySince, State: domain.StateAll, MergedOnly: true},
	})

	assert.Nil(t, report)
	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
}
