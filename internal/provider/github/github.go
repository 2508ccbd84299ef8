package github

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"

	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

const perPage = 100

// GitHubProvider implements provider.Provider for GitHub.
// Project identifiers have the form owner/repo.
type GitHubProvider struct {
	client       *github.Client
	token        string
	defaultState string
}

// Option configures the GitHub provider.
type Option func(*GitHubProvider)

// WithBaseURL sets a custom API base URL (GitHub Enterprise or tests).
func WithBaseURL(url string) Option {
	return func(p *GitHubProvider) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		p.client.BaseURL, _ = p.client.BaseURL.Parse(url)
	}
}

// WithDefaultState sets the state used when listing without an explicit filter.
func WithDefaultState(state string) Option {
	return func(p *GitHubProvider) {
		if state != "" {
			p.defaultState = state
		}
	}
}

// New creates a new GitHub provider.
func New(token string, opts ...Option) *GitHubProvider {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}

	p := &GitHubProvider{
		client:       github.NewClient(httpClient),
		token:        token,
		defaultState: "opened",
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// tokenTransport adds authorization header to requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

// Name returns the provider name.
func (p *GitHubProvider) Name() string {
	return "github"
}

// ListMergeRequests returns the pull requests of a repository in the requested
// state. States use GitLab vocabulary: opened, closed, merged, all.
func (p *GitHubProvider) ListMergeRequests(ctx context.Context, projectID string, opts provider.ListOptions) ([]provider.MergeRequest, error) {
	owner, repo, err := splitProject(projectID)
	if err != nil {
		return nil, err
	}

	state := opts.State
	if state == "" {
		state = p.defaultState
	}

	listOpts := &github.PullRequestListOptions{
		State:       githubState(state),
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	result := []provider.MergeRequest{}
	for {
		prs, resp, err := p.client.PullRequests.List(ctx, owner, repo, listOpts)
		if err != nil {
			return nil, classify(err, resp, "listing pull requests of %q", projectID)
		}

		for _, pr := range prs {
			mr := toMergeRequest(pr)
			if state == "merged" && mr.State != "merged" {
				continue
			}
			if state == "closed" && mr.State != "closed" {
				continue
			}
			result = append(result, mr)
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	return result, nil
}

// GetMergeRequest fetches a pull request by number.
func (p *GitHubProvider) GetMergeRequest(ctx context.Context, projectID string, number int) (*provider.MergeRequest, error) {
	owner, repo, err := splitProject(projectID)
	if err != nil {
		return nil, err
	}

	pr, resp, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, classify(err, resp, "pull request %d in %q", number, projectID)
	}

	mr := toMergeRequest(pr)
	return &mr, nil
}

// GetFileChanges returns the files changed in a pull request.
func (p *GitHubProvider) GetFileChanges(ctx context.Context, projectID string, number int) ([]provider.FileChange, error) {
	owner, repo, err := splitProject(projectID)
	if err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: perPage}
	result := []provider.FileChange{}
	for {
		files, resp, err := p.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, classify(err, resp, "files of pull request %d in %q", number, projectID)
		}

		for _, f := range files {
			change := provider.FileChange{
				OldPath:   f.GetFilename(),
				NewPath:   f.GetFilename(),
				Diff:      f.GetPatch(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			}
			switch f.GetStatus() {
			case "added":
				change.IsNew = true
			case "removed":
				change.IsDeleted = true
			case "renamed":
				change.IsRenamed = true
				change.OldPath = f.GetPreviousFilename()
			}
			result = append(result, change)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

func toMergeRequest(pr *github.PullRequest) provider.MergeRequest {
	state := pr.GetState()
	switch {
	case pr.MergedAt != nil:
		state = "merged"
	case state == "open":
		state = "opened"
	}

	return provider.MergeRequest{
		ID:          pr.GetNumber(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author: provider.Author{
			Name:     pr.GetUser().GetName(),
			Username: pr.GetUser().GetLogin(),
		},
		State:        state,
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		WebURL:       pr.GetHTMLURL(),
	}
}

// githubState translates a GitLab-style state filter into the GitHub API's.
func githubState(state string) string {
	switch state {
	case "opened":
		return "open"
	case "closed", "merged":
		return "closed"
	default:
		return "all"
	}
}

func splitProject(projectID string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(projectID, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", toolerr.InvalidParameter("project_id", "must have the form owner/repo, got %q", projectID)
	}
	return owner, repo, nil
}

func classify(err error, resp *github.Response, format string, args ...any) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return toolerr.NotFound(err, format, args...)
	}
	return toolerr.Upstream(err, format, args...)
}
