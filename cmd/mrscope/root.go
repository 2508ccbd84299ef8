package main

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/logging"
	"github.com/drewdunne/mrscope/internal/registry"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "mrscope",
	Short: "Merge request analysis tools for AI agents",
	Long: `mrscope fetches merge requests from GitLab or GitHub, computes change
statistics grouped by file type, and stores the reports in Confluence.
The tools are served over the Model Context Protocol and are also
available as commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (optional)")
}

// app holds what every command needs after startup.
type app struct {
	cfg        *config.Config
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger
	logCloser  io.Closer
}

func (a *app) Close() error {
	return a.logCloser.Close()
}

// setup loads the environment and config, configures logging and builds the
// dispatcher. mutate may adjust the config before it is validated.
func setup(mutate func(*config.Config)) (*app, error) {
	// Load .env file if specified or exists
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "loading env file %s", envFile)
		}
	} else {
		godotenv.Load(".env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	logger, closer, err := logging.Setup(logging.Options{Dir: cfg.Logging.Dir, Level: cfg.Logging.Level})
	if err != nil {
		return nil, errors.Wrap(err, "setting up logging")
	}

	reg, err := registry.New(cfg)
	if err != nil {
		closer.Close()
		return nil, err
	}

	opts := []dispatch.Option{dispatch.WithLogger(logger)}
	if docs := reg.Documents(); docs != nil {
		opts = append(opts, dispatch.WithDocumentStore(docs, cfg.Confluence.Space))
	}

	log.Debug().
		Str("source", cfg.Source.Provider).
		Bool("confluence", cfg.Confluence.Enabled()).
		Msg("configured")

	return &app{
		cfg:        cfg,
		registry:   reg,
		dispatcher: dispatch.New(reg.Source(), opts...),
		logger:     logger,
		logCloser:  closer,
	}, nil
}
