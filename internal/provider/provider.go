package provider

import "context"

// Provider fetches merge request data from a source-control host.
// Implementations return *toolerr.Error values classified as not_found or upstream.
type Provider interface {
	// Name returns the provider name (github, gitlab).
	Name() string

	// ListMergeRequests returns every merge request of a project matching opts.
	// An empty result is not an error.
	ListMergeRequests(ctx context.Context, projectID string, opts ListOptions) ([]MergeRequest, error)

	// GetMergeRequest fetches one merge request by its project-scoped number.
	GetMergeRequest(ctx context.Context, projectID string, number int) (*MergeRequest, error)

	// GetFileChanges returns the per-file changes of a merge request in host order.
	GetFileChanges(ctx context.Context, projectID string, number int) ([]FileChange, error)
}

// FetchMergeRequests returns the single merge request identified by number, or
// every merge request of the project when number is nil.
func FetchMergeRequests(ctx context.Context, p Provider, projectID string, number *int, opts ListOptions) ([]MergeRequest, error) {
	if number == nil {
		return p.ListMergeRequests(ctx, projectID, opts)
	}
	mr, err := p.GetMergeRequest(ctx, projectID, *number)
	if err != nil {
		return nil, err
	}
	return []MergeRequest{*mr}, nil
}
