package config

// ApplyEnv fills values the config file left empty from the environment.
// File values take precedence.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	src := &cfg.Source
	switch src.Provider {
	case ProviderGitHub:
		src.Token = coalesce(src.Token, getenv("GITHUB_TOKEN"))
	default:
		src.BaseURL = coalesce(src.BaseURL, getenv("GITLAB_URL"))
		src.Token = coalesce(src.Token, getenv("GITLAB_TOKEN"))
	}
	src.DefaultProject = coalesce(src.DefaultProject, getenv("GITLAB_PROJECT_ID"))

	doc := &cfg.Confluence
	doc.BaseURL = coalesce(doc.BaseURL, getenv("CONFLUENCE_URL"))
	doc.Username = coalesce(doc.Username, getenv("CONFLUENCE_USERNAME"))
	doc.Token = coalesce(doc.Token, getenv("CONFLUENCE_TOKEN"))
	doc.Space = coalesce(doc.Space, getenv("CONFLUENCE_SPACE"))

	cfg.Webhook.Secret = coalesce(cfg.Webhook.Secret, getenv("WEBHOOK_SECRET"))
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
