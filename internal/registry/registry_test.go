package registry

import (
	"testing"

	"github.com/drewdunne/mrscope/internal/config"
)

func testConfig(providerName string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.Provider = providerName
	cfg.Source.Token = "token"
	if providerName == config.ProviderGitLab {
		cfg.Source.BaseURL = "https://gitlab.example.com"
	}
	return cfg
}

func TestRegistry_Source(t *testing.T) {
	for _, name := range []string{config.ProviderGitLab, config.ProviderGitHub} {
		t.Run(name, func(t *testing.T) {
			reg, err := New(testConfig(name))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			src := reg.Source()
			if src == nil {
				t.Fatal("Source() returned nil")
			}
			if src.Name() != name {
				t.Errorf("Source().Name() = %q, want %q", src.Name(), name)
			}
		})
	}
}

func TestRegistry_Documents(t *testing.T) {
	cfg := testConfig(config.ProviderGitLab)

	reg, _ := New(cfg)
	if reg.Documents() != nil {
		t.Error("Documents() should be nil without confluence config")
	}

	cfg.Confluence.BaseURL = "https://wiki.example.com"
	cfg.Confluence.Token = "t"
	cfg.Confluence.Space = "DEV"
	reg, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if reg.Documents() == nil {
		t.Error("Documents() returned nil with confluence configured")
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	if _, err := New(testConfig("bitbucket")); err == nil {
		t.Error("New() should reject an unknown provider")
	}
}
