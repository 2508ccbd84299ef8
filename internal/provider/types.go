package provider

import "time"

// Author identifies the user who opened a merge request.
type Author struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// MergeRequest is the normalized metadata of a merge request/pull request.
type MergeRequest struct {
	ID           int       `json:"id"` // MR IID (GitLab) or PR number (GitHub)
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       Author    `json:"author"`
	State        string    `json:"state"`
	SourceBranch string    `json:"source_branch"`
	TargetBranch string    `json:"target_branch"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	WebURL       string    `json:"web_url"`
}

// FileChange is one changed file of a merge request.
// Diff is empty when the host omitted the body (e.g. very large files).
type FileChange struct {
	OldPath   string `json:"old_path"`
	NewPath   string `json:"new_path"`
	Diff      string `json:"diff_text"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	IsNew     bool   `json:"is_new"`
	IsDeleted bool   `json:"is_deleted"`
	IsRenamed bool   `json:"is_renamed"`
}

// Path returns the path the file is known by after the change, falling back to
// the old path for deletions.
func (f FileChange) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// Status describes the change as added, deleted, renamed or modified.
func (f FileChange) Status() string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDeleted:
		return "deleted"
	case f.IsRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// ListOptions narrows a merge request listing.
type ListOptions struct {
	// State is opened, closed, merged or all. Empty means the provider default.
	State string
}
