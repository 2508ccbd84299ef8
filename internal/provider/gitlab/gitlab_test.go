package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GitLabProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New("test-token", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestGitLabProvider_GetMergeRequest(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/v4/projects/owner%2Frepo/merge_requests/42" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		if r.Header.Get("PRIVATE-TOKEN") != "test-token" {
			t.Errorf("missing or incorrect token header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            999,
			"iid":           42,
			"title":         "Test MR",
			"description":   "Description",
			"state":         "opened",
			"source_branch": "feature",
			"target_branch": "main",
			"author":        map[string]string{"username": "author", "name": "Author Name"},
			"web_url":       "https://gitlab.com/owner/repo/-/merge_requests/42",
			"created_at":    "2024-03-01T10:00:00Z",
		})
	})

	mr, err := p.GetMergeRequest(context.Background(), "owner/repo", 42)
	if err != nil {
		t.Fatalf("GetMergeRequest() error = %v", err)
	}

	if mr.ID != 42 {
		t.Errorf("ID = %d, want %d", mr.ID, 42)
	}
	if mr.Title != "Test MR" {
		t.Errorf("Title = %q, want %q", mr.Title, "Test MR")
	}
	if mr.Author.Name != "Author Name" || mr.Author.Username != "author" {
		t.Errorf("Author = %+v, want name and username", mr.Author)
	}
	if mr.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGitLabProvider_GetMergeRequest_NotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"404 Not found"}`))
	})

	_, err := p.GetMergeRequest(context.Background(), "owner/repo", 7)
	if !errors.Is(err, toolerr.ErrNotFound) {
		t.Fatalf("GetMergeRequest() error = %v, want not_found", err)
	}
}

func TestGitLabProvider_Unauthorized(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"401 Unauthorized"}`))
	})

	_, err := p.GetFileChanges(context.Background(), "owner/repo", 7)
	if got := toolerr.KindOf(err); got != toolerr.KindUpstream {
		t.Fatalf("KindOf(err) = %q, want %q (err = %v)", got, toolerr.KindUpstream, err)
	}
}

func TestGitLabProvider_ListMergeRequests(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/v4/projects/owner%2Frepo/merge_requests" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		if got := r.URL.Query().Get("state"); got != "opened" {
			t.Errorf("state = %q, want %q", got, "opened")
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"iid": 1, "title": "First", "state": "opened", "author": map[string]string{"username": "a"}},
			{"iid": 2, "title": "Second", "state": "opened"},
		})
	})

	mrs, err := p.ListMergeRequests(context.Background(), "owner/repo", provider.ListOptions{})
	if err != nil {
		t.Fatalf("ListMergeRequests() error = %v", err)
	}
	if len(mrs) != 2 {
		t.Fatalf("len(mrs) = %d, want 2", len(mrs))
	}
	if mrs[0].ID != 1 || mrs[1].Title != "Second" {
		t.Errorf("unexpected merge requests: %+v", mrs)
	}
}

func TestGitLabProvider_ListMergeRequests_Empty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "merged" {
			t.Errorf("state = %q, want %q", got, "merged")
		}
		w.Write([]byte(`[]`))
	})

	mrs, err := p.ListMergeRequests(context.Background(), "owner/repo", provider.ListOptions{State: "merged"})
	if err != nil {
		t.Fatalf("ListMergeRequests() error = %v", err)
	}
	if mrs == nil || len(mrs) != 0 {
		t.Errorf("ListMergeRequests() = %v, want empty non-nil slice", mrs)
	}
}

func TestGitLabProvider_GetFileChanges(t *testing.T) {
	var pages []string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/v4/projects/proj/merge_requests/42/diffs" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			w.Header().Set("X-Next-Page", "2")
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{
					"old_path": "main.py",
					"new_path": "main.py",
					"diff":     "@@ -1,2 +1,3 @@\n-a\n+b\n+c\n",
				},
			})
		case "2":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{
					"old_path":     "gone.txt",
					"new_path":     "gone.txt",
					"diff":         "",
					"deleted_file": true,
				},
			})
		default:
			t.Errorf("unexpected page %q", page)
		}
	})

	files, err := p.GetFileChanges(context.Background(), "proj", 42)
	if err != nil {
		t.Fatalf("GetFileChanges() error = %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("requested pages %v, want 1 and 2", pages)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].Additions != 2 || files[0].Deletions != 1 {
		t.Errorf("main.py = +%d/-%d, want +2/-1", files[0].Additions, files[0].Deletions)
	}
	if !files[1].IsDeleted || files[1].Diff != "" {
		t.Errorf("gone.txt = %+v, want deleted with empty diff", files[1])
	}
}

func TestGitLabProvider_GetFileChanges_NotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"404 Not found"}`))
	})

	_, err := p.GetFileChanges(context.Background(), "proj", 7)
	if toolerr.KindOf(err) != toolerr.KindNotFound {
		t.Errorf("GetFileChanges() error = %v, want not found", err)
	}
}
