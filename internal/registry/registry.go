// Package registry builds the host clients named in the configuration.
package registry

import (
	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/confluence"
	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/provider/github"
	"github.com/drewdunne/mrscope/internal/provider/gitlab"
)

// Registry holds the configured host clients.
type Registry struct {
	source provider.Provider
	docs   *confluence.Client
}

// New creates the source provider and, when configured, the documentation
// host client. cfg must have passed Validate.
func New(cfg *config.Config) (*Registry, error) {
	r := &Registry{}

	src := cfg.Source
	switch src.Provider {
	case config.ProviderGitHub:
		opts := []github.Option{github.WithDefaultState(src.MRState)}
		if src.BaseURL != "" {
			opts = append(opts, github.WithBaseURL(src.BaseURL))
		}
		r.source = github.New(src.Token, opts...)

	case config.ProviderGitLab:
		p, err := gitlab.New(src.Token, gitlab.WithBaseURL(src.BaseURL), gitlab.WithDefaultState(src.MRState))
		if err != nil {
			return nil, errors.Wrap(err, "creating gitlab provider")
		}
		r.source = p

	default:
		return nil, errors.Errorf("unknown provider %q", src.Provider)
	}

	if doc := cfg.Confluence; doc.Enabled() {
		r.docs = confluence.New(doc.BaseURL, doc.Username, doc.Token,
			confluence.WithParentTitle(doc.ParentTitle),
			confluence.WithRetryMax(doc.RetryMax),
			confluence.WithTimeout(doc.Timeout()),
		)
	}

	return r, nil
}

// Source returns the configured source provider.
func (r *Registry) Source() provider.Provider {
	return r.source
}

// Documents returns the documentation host client, or nil if not configured.
func (r *Registry) Documents() *confluence.Client {
	return r.docs
}
