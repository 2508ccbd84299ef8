package server

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

// stubSource serves merge request !42 of any project.
type stubSource struct{}

func (stubSource) Name() string { return "stub" }

func (stubSource) ListMergeRequests(context.Context, string, provider.ListOptions) ([]provider.MergeRequest, error) {
	return []provider.MergeRequest{{ID: 42, Title: "Add feature"}}, nil
}

func (stubSource) GetMergeRequest(_ context.Context, _ string, number int) (*provider.MergeRequest, error) {
	if number != 42 {
		return nil, toolerr.NotFound(nil, "merge request !%d", number)
	}
	return &provider.MergeRequest{ID: 42, Title: "Add feature"}, nil
}

func (stubSource) GetFileChanges(context.Context, string, int) ([]provider.FileChange, error) {
	return []provider.FileChange{
		{OldPath: "main.py", NewPath: "main.py", Additions: 10, Deletions: 2},
		{OldPath: "README.md", NewPath: "README.md", Additions: 3},
	}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // Use any available port
	cfg.Source.Token = "token"
	return cfg
}

func newTestServer() *Server {
	return New(testConfig(), dispatch.New(stubSource{}, dispatch.WithLogger(zerolog.Nop())))
}
