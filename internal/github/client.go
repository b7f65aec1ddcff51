// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const defaultDomain = "github.com"

// Client encapsulates the GitHub API client.
type Client struct {
	client      *github.Client
	timeout     time.Duration
	concurrency int
}

// APIURL returns the REST endpoint for a GitHub domain. GitHub Enterprise
// serves the API under /api/v3/.
func APIURL(domain string) string {
	if domain == "" || domain == defaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewClient creates a GitHub API client from configuration. The token is not
// checked here; CurrentUser does that on demand.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}

	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = defaultDomain
	}
	apiURL := APIURL(domain)

	logging.Info("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if domain != defaultDomain {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	concurrency := cfg.Analysis.CommitConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Client{
		client:      client,
		timeout:     cfg.Analysis.RequestTimeout,
		concurrency: concurrency,
	}, nil
}

// CurrentUser returns the identity the token authenticates as.
func (c *Client) CurrentUser(ctx context.Context) (models.GitHubUser, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		logging.Error("failed to get authenticated github user",
			"error", err,
			"status_code", statusCode(resp))
		return models.GitHubUser{}, fmt.Errorf("could not authenticate GitHub user: %w", err)
	}

	logging.Info("github authentication successful", "username", user.GetLogin())

	return models.GitHubUser{
		Login: user.GetLogin(),
		Name:  user.GetName(),
		Email: user.GetEmail(),
		URL:   user.GetHTMLURL(),
	}, nil
}

// maxPerPage is the largest page the GitHub API serves.
const maxPerPage = 100

// ListCommits returns up to limit of the most recent commits on the
// repository's default branch, following pagination past maxPerPage.
// A non-positive limit means one full page.
func (c *Client) ListCommits(ctx context.Context, owner, name string, limit int) ([]models.Commit, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = maxPerPage
	}
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{
			PerPage: min(limit, maxPerPage),
		},
	}

	repository := owner + "/" + name
	commits := make([]models.Commit, 0, opts.PerPage)
	for {
		repoCommits, resp, err := c.client.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, describeError(err, resp)
		}

		for _, rc := range repoCommits {
			if rc.GetSHA() == "" {
				logging.Debug("skipping commit without sha", "repository", repository)
				continue
			}
			commits = append(commits, commitFromGitHub(repository, rc))
		}

		if len(commits) >= limit || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// FetchCommits collects commits from every repository, keeping repository
// order. When authorEmail is set only commits whose author email contains it
// (case-insensitively) are kept. Repositories that fail are skipped and
// reported; they never fail the whole fetch.
func (c *Client) FetchCommits(ctx context.Context, repositories []string, authorEmail string, limitPerRepo int) ([]models.Commit, []models.SkippedRepository) {
	type repoResult struct {
		commits []models.Commit
		skipped *models.SkippedRepository
	}

	results := make([]repoResult, len(repositories))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, repository := range repositories {
		g.Go(func() error {
			commits, err := c.fetchRepository(ctx, repository, limitPerRepo)
			if err != nil {
				logging.Warn("skipping repository", "repository", repository, "error", err)
				results[i].skipped = &models.SkippedRepository{Repository: repository, Reason: err.Error()}
				return nil
			}
			results[i].commits = FilterByAuthor(commits, authorEmail)
			return nil
		})
	}
	_ = g.Wait()

	var commits []models.Commit
	var skipped []models.SkippedRepository
	for _, result := range results {
		commits = append(commits, result.commits...)
		if result.skipped != nil {
			skipped = append(skipped, *result.skipped)
		}
	}

	logging.Info("commits fetched",
		"repositories", len(repositories),
		"skipped", len(skipped),
		"commits", len(commits),
		"author_filter", authorEmail != "")
	return commits, skipped
}

func (c *Client) fetchRepository(ctx context.Context, repository string, limit int) ([]models.Commit, error) {
	owner, name, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}
	logging.Debug("fetching commits", "owner", owner, "repo", name, "limit", limit)
	return c.ListCommits(ctx, owner, name, limit)
}

// SplitRepository parses "owner/repo".
func SplitRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// FilterByAuthor keeps commits whose author email contains authorEmail,
// ignoring case. An empty authorEmail keeps everything.
func FilterByAuthor(commits []models.Commit, authorEmail string) []models.Commit {
	if authorEmail == "" {
		return commits
	}
	needle := strings.ToLower(authorEmail)
	var kept []models.Commit
	for _, commit := range commits {
		if strings.Contains(strings.ToLower(commit.AuthorEmail), needle) {
			kept = append(kept, commit)
		}
	}
	return kept
}

func commitFromGitHub(repository string, rc *github.RepositoryCommit) models.Commit {
	author := rc.GetCommit().GetAuthor()

	var authored string
	if date := author.GetDate(); !date.IsZero() {
		authored = date.UTC().Format(time.RFC3339)
	}

	return models.Commit{
		SHA:          rc.GetSHA(),
		ShortSHA:     models.ShortenSHA(rc.GetSHA()),
		Message:      rc.GetCommit().GetMessage(),
		AuthorName:   author.GetName(),
		AuthorEmail:  author.GetEmail(),
		AuthoredDate: authored,
		Repository:   repository,
	}
}

func describeError(err error, resp *github.Response) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		if ghErr.Response.StatusCode == 404 {
			return fmt.Errorf("repository not found or not accessible (status: 404)")
		}
		return fmt.Errorf("github api error: %s (status: %d)", ghErr.Message, ghErr.Response.StatusCode)
	}
	return fmt.Errorf("failed to list commits: %w (status: %d)", err, statusCode(resp))
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
