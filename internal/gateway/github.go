// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/logger"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

const perPage = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	ListCommits(ctx context.Context, repo domain.RepoRef, author string, since time.Time) ([]domain.CommitRef, error)
	FetchCommitStats(ctx context.Context, repo domain.RepoRef, sha string) (additions, deletions int, err error)
	ListPullRequests(ctx context.Context, repo domain.RepoRef, filter domain.PRFilter) ([]domain.PullRequest, error)
	FetchPullRequest(ctx context.Context, repo domain.RepoRef, number int) (domain.PullRequest, error)
	FetchPullRequestFiles(ctx context.Context, repo domain.RepoRef, number int, includePatch bool) ([]domain.FileChange, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	authenticated bool
	logger        *logger.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// Without a token the REST client is unauthenticated and GraphQL is never used.
func NewGitHubGateway(cfg config.Config, log *logger.Logger) (*GitHubGateway, error) {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.RateLimitWait > 0 {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(cfg.RateLimitWait, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = rateLimitWaiter
	}
	if cfg.Authenticated() {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		}
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		restClient, err = restClient.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient(graphqlEndpoint(cfg.BaseURL), httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		authenticated: cfg.Authenticated(),
		logger:        log,
	}, nil
}

// graphqlEndpoint maps a GitHub Enterprise base URL to its GraphQL endpoint.
func graphqlEndpoint(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return strings.TrimSuffix(baseURL, "/") + "/api/graphql"
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Path = strings.TrimSuffix(u.Path, "/api/v3") + "/api/graphql"
	return u.String()
}

// ListCommits returns every commit by author since the given time, in listing order.
func (g *GitHubGateway) ListCommits(ctx context.Context, repo domain.RepoRef, author string, since time.Time) ([]domain.CommitRef, error) {
	opts := &github.CommitsListOptions{
		Author:      author,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}
	var refs []domain.CommitRef
	for {
		g.logger.Verbosef("Fetching commits page %d...", opts.Page)
		commits, resp, err := g.restClient.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits of %s: %w", repo, classifyError(err, "repository "+repo.String()))
		}
		if len(commits) == 0 {
			break
		}
		for _, c := range commits {
			refs = append(refs, domain.CommitRef{
				SHA:         c.GetSHA(),
				AuthorLogin: c.GetAuthor().GetLogin(),
				Date:        c.GetCommit().GetAuthor().GetDate().Time,
				Message:     firstLine(c.GetCommit().GetMessage()),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	g.logger.Verbosef("Found %d commits by %s since %s", len(refs), author, since.Format(time.RFC3339))
	return refs, nil
}

// FetchCommitStats returns the additions and deletions of a single commit.
func (g *GitHubGateway) FetchCommitStats(ctx context.Context, repo domain.RepoRef, sha string) (int, int, error) {
	commit, _, err := g.restClient.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch commit %s: %w", sha, classifyError(err, "commit "+sha))
	}
	stats := commit.GetStats()
	return stats.GetAdditions(), stats.GetDeletions(), nil
}

// ListPullRequests returns the author's pull requests created since filter.Since,
// newest first. Authenticated gateways use a single GraphQL search which also
// carries the size counters; otherwise the REST listing is filtered client-side.
func (g *GitHubGateway) ListPullRequests(ctx context.Context, repo domain.RepoRef, filter domain.PRFilter) ([]domain.PullRequest, error) {
	if g.authenticated {
		return g.searchPullRequests(ctx, repo, filter)
	}
	return g.listPullRequests(ctx, repo, filter)
}

func (g *GitHubGateway) listPullRequests(ctx context.Context, repo domain.RepoRef, filter domain.PRFilter) ([]domain.PullRequest, error) {
	state := filter.State
	if state == "" {
		state = domain.StateAll
	}
	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}
	var prs []domain.PullRequest
	for {
		g.logger.Verbosef("Fetching PRs page %d...", opts.Page)
		page, resp, err := g.restClient.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests of %s: %w", repo, classifyError(err, "repository "+repo.String()))
		}
		if len(page) == 0 {
			break
		}
		for _, pr := range page {
			// Sorted by creation date descending, so everything after this is older too.
			if pr.GetCreatedAt().Before(filter.Since) {
				g.logger.Verbosef("Reached PRs created before %s", filter.Since.Format(config.DateLayout))
				return prs, nil
			}
			converted := fromRESTPullRequest(pr)
			if filter.Matches(converted) {
				prs = append(prs, converted)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

// FetchPullRequest returns a single pull request including its size counters.
func (g *GitHubGateway) FetchPullRequest(ctx context.Context, repo domain.RepoRef, number int) (domain.PullRequest, error) {
	pr, _, err := g.restClient.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to fetch PR #%d: %w", number, classifyError(err, fmt.Sprintf("pull request #%d", number)))
	}
	converted := fromRESTPullRequest(pr)
	converted.HasStats = true
	return converted, nil
}

// FetchPullRequestFiles returns every file changed by a pull request.
func (g *GitHubGateway) FetchPullRequestFiles(ctx context.Context, repo domain.RepoRef, number int, includePatch bool) ([]domain.FileChange, error) {
	opts := &github.ListOptions{PerPage: perPage, Page: 1}
	var files []domain.FileChange
	for {
		page, resp, err := g.restClient.PullRequests.ListFiles(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of PR #%d: %w", number, classifyError(err, fmt.Sprintf("pull request #%d", number)))
		}
		if len(page) == 0 {
			break
		}
		for _, f := range page {
			fc := domain.FileChange{
				Filename:    f.GetFilename(),
				Status:      f.GetStatus(),
				Additions:   f.GetAdditions(),
				Deletions:   f.GetDeletions(),
				Changes:     f.GetChanges(),
				BlobURL:     f.GetBlobURL(),
				RawURL:      f.GetRawURL(),
				ContentsURL: f.GetContentsURL(),
			}
			if includePatch {
				fc.Patch = f.GetPatch()
			}
			if fc.Status == "renamed" {
				fc.PreviousFilename = f.GetPreviousFilename()
			}
			files = append(files, fc)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

func fromRESTPullRequest(pr *github.PullRequest) domain.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return domain.PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		State:          pr.GetState(),
		Draft:          pr.GetDraft(),
		Author:         pr.GetUser().GetLogin(),
		CreatedAt:      pr.GetCreatedAt().Time,
		UpdatedAt:      pr.GetUpdatedAt().Time,
		ClosedAt:       timestampPtr(pr.ClosedAt),
		MergedAt:       timestampPtr(pr.MergedAt),
		HTMLURL:        pr.GetHTMLURL(),
		Additions:      pr.GetAdditions(),
		Deletions:      pr.GetDeletions(),
		ChangedFiles:   pr.GetChangedFiles(),
		Commits:        pr.GetCommits(),
		Comments:       pr.GetComments(),
		ReviewComments: pr.GetReviewComments(),
		Labels:         labels,
		BaseBranch:     pr.GetBase().GetRef(),
		HeadBranch:     pr.GetHead().GetRef(),
	}
}

func timestampPtr(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}
