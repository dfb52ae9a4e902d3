package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/shurcooL/githubv4"
)

// pullRequestNode is the subset of PullRequest fields needed for PR reports.
type pullRequestNode struct {
	Number       int
	Title        string
	State        githubv4.PullRequestState
	IsDraft      bool
	CreatedAt    githubv4.DateTime
	UpdatedAt    githubv4.DateTime
	ClosedAt     *githubv4.DateTime
	MergedAt     *githubv4.DateTime
	URL          string `graphql:"url"`
	Additions    int
	Deletions    int
	ChangedFiles int
	BaseRefName  string
	HeadRefName  string
	Author       struct {
		Login string
	}
	Commits struct {
		TotalCount int
	}
	Comments struct {
		TotalCount int
	}
	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 20)"`
}

// searchPullRequestsQuery searches pull requests with their size counters in one round trip.
type searchPullRequestsQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Nodes []struct {
			Typename    string          `graphql:"__typename"`
			PullRequest pullRequestNode `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 50, after: $cursor)"`
}

// buildSearchQuery renders filter as a GitHub search query string.
func buildSearchQuery(repo domain.RepoRef, filter domain.PRFilter) string {
	parts := []string{
		"repo:" + repo.String(),
		"is:pr",
		"author:" + filter.Author,
		"created:>=" + filter.Since.Format(config.DateLayout),
	}
	switch filter.State {
	case domain.StateOpen:
		parts = append(parts, "is:open")
	case domain.StateClosed:
		parts = append(parts, "is:closed")
	}
	if filter.MergedOnly {
		parts = append(parts, "is:merged")
	}
	if !filter.IncludeDraft {
		parts = append(parts, "draft:false")
	}
	parts = append(parts, "sort:created-desc")
	return strings.Join(parts, " ")
}

func (g *GitHubGateway) searchPullRequests(ctx context.Context, repo domain.RepoRef, filter domain.PRFilter) ([]domain.PullRequest, error) {
	query := buildSearchQuery(repo, filter)
	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}
	var prs []domain.PullRequest
	for page := 1; ; page++ {
		g.logger.Verbosef("Searching PRs page %d: %s", page, query)
		var q searchPullRequestsQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL search for pull requests: %w", classifyGraphQLError(err, "repository "+repo.String()))
		}
		for _, node := range q.Search.Nodes {
			if node.Typename != "PullRequest" {
				continue
			}
			pr := fromGraphQLPullRequest(node.PullRequest)
			if pr.CreatedAt.Before(filter.Since) || !filter.Matches(pr) {
				continue
			}
			prs = append(prs, pr)
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}
	g.logger.Verbosef("Found %d PRs by %s since %s", len(prs), filter.Author, filter.Since.Format(config.DateLayout))
	return prs, nil
}

func fromGraphQLPullRequest(n pullRequestNode) domain.PullRequest {
	labels := make([]string, 0, len(n.Labels.Nodes))
	for _, l := range n.Labels.Nodes {
		labels = append(labels, l.Name)
	}
	// REST vocabulary: merged PRs are closed PRs with a merge timestamp.
	state := domain.StateOpen
	if n.State != githubv4.PullRequestStateOpen {
		state = domain.StateClosed
	}
	return domain.PullRequest{
		Number:       n.Number,
		Title:        n.Title,
		State:        state,
		Draft:        n.IsDraft,
		Author:       n.Author.Login,
		CreatedAt:    n.CreatedAt.Time,
		UpdatedAt:    n.UpdatedAt.Time,
		ClosedAt:     dateTimePtr(n.ClosedAt),
		MergedAt:     dateTimePtr(n.MergedAt),
		HTMLURL:      n.URL,
		Additions:    n.Additions,
		Deletions:    n.Deletions,
		ChangedFiles: n.ChangedFiles,
		Commits:      n.Commits.TotalCount,
		Comments:     n.Comments.TotalCount,
		Labels:       labels,
		BaseBranch:   n.BaseRefName,
		HeadBranch:   n.HeadRefName,
		HasStats:     true,
	}
}

func dateTimePtr(dt *githubv4.DateTime) *time.Time {
	if dt == nil || dt.IsZero() {
		return nil
	}
	t := dt.Time
	return &t
}
