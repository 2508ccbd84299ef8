package gitlab

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/xanzy/go-gitlab"

	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/provider/diffstat"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

const (
	defaultState = "opened"
	perPage      = 100
)

// GitLabProvider implements provider.Provider for GitLab.
type GitLabProvider struct {
	client       *gitlab.Client
	token        string
	baseURL      string
	httpClient   *http.Client
	defaultState string
}

// Option configures the GitLab provider.
type Option func(*GitLabProvider)

// WithBaseURL sets a self-hosted instance URL (or a test server).
func WithBaseURL(baseURL string) Option {
	return func(p *GitLabProvider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for API calls. Transport timeouts
// belong here.
func WithHTTPClient(c *http.Client) Option {
	return func(p *GitLabProvider) {
		p.httpClient = c
	}
}

// WithDefaultState sets the state used when listing without an explicit filter.
func WithDefaultState(state string) Option {
	return func(p *GitLabProvider) {
		if state != "" {
			p.defaultState = state
		}
	}
}

// New creates a new GitLab provider.
func New(token string, opts ...Option) (*GitLabProvider, error) {
	p := &GitLabProvider{token: token, defaultState: defaultState}
	for _, opt := range opts {
		opt(p)
	}

	// No automatic retries: a failed call surfaces to the caller as is.
	clientOpts := []gitlab.ClientOptionFunc{gitlab.WithoutRetries()}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, gitlab.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, gitlab.WithHTTPClient(p.httpClient))
	}

	client, err := gitlab.NewClient(token, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating gitlab client")
	}
	p.client = client
	return p, nil
}

// Name returns the provider name.
func (p *GitLabProvider) Name() string {
	return "gitlab"
}

// ListMergeRequests returns all merge requests of a project in the requested state.
func (p *GitLabProvider) ListMergeRequests(ctx context.Context, projectID string, opts provider.ListOptions) ([]provider.MergeRequest, error) {
	state := opts.State
	if state == "" {
		state = p.defaultState
	}

	listOpts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
		State:       gitlab.Ptr(state),
	}

	result := []provider.MergeRequest{}
	for {
		mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(projectID, listOpts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, classify(err, resp, "listing merge requests of project %q", projectID)
		}

		for _, mr := range mrs {
			summary := provider.MergeRequest{
				ID:           mr.IID,
				Title:        mr.Title,
				Description:  mr.Description,
				State:        mr.State,
				SourceBranch: mr.SourceBranch,
				TargetBranch: mr.TargetBranch,
				WebURL:       mr.WebURL,
			}
			if mr.Author != nil {
				summary.Author = provider.Author{Name: mr.Author.Name, Username: mr.Author.Username}
			}
			if mr.CreatedAt != nil {
				summary.CreatedAt = *mr.CreatedAt
			}
			if mr.UpdatedAt != nil {
				summary.UpdatedAt = *mr.UpdatedAt
			}
			result = append(result, summary)
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	return result, nil
}

// GetMergeRequest fetches a merge request by IID.
func (p *GitLabProvider) GetMergeRequest(ctx context.Context, projectID string, number int) (*provider.MergeRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(projectID, number, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(err, resp, "merge request %d in project %q", number, projectID)
	}

	result := &provider.MergeRequest{
		ID:           mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		State:        mr.State,
		WebURL:       mr.WebURL,
	}

	if mr.Author != nil {
		result.Author = provider.Author{Name: mr.Author.Name, Username: mr.Author.Username}
	}
	if mr.CreatedAt != nil {
		result.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		result.UpdatedAt = *mr.UpdatedAt
	}

	return result, nil
}

// GetFileChanges returns the files changed in a merge request, following every
// page of the diffs endpoint. GitLab reports no per-file counts, so they are
// read off the diff body.
func (p *GitLabProvider) GetFileChanges(ctx context.Context, projectID string, number int) ([]provider.FileChange, error) {
	listOpts := &gitlab.ListMergeRequestDiffsOptions{
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}

	result := []provider.FileChange{}
	for {
		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(projectID, number, listOpts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, classify(err, resp, "changes of merge request %d in project %q", number, projectID)
		}

		for _, d := range diffs {
			additions, deletions := diffstat.Count(d.Diff)
			result = append(result, provider.FileChange{
				OldPath:   d.OldPath,
				NewPath:   d.NewPath,
				Diff:      d.Diff,
				Additions: additions,
				Deletions: deletions,
				IsNew:     d.NewFile,
				IsDeleted: d.DeletedFile,
				IsRenamed: d.RenamedFile,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return result, nil
}

// classify maps a failed API call onto the tool error kinds.
func classify(err error, resp *gitlab.Response, format string, args ...any) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return toolerr.NotFound(err, format, args...)
	}
	return toolerr.Upstream(err, format, args...)
}
