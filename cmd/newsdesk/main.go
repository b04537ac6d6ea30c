package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdesk/config"
	"github.com/pevans/newsdesk/gateway"
	"github.com/pevans/newsdesk/store"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Write, publish and remove school news articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $NEWSDESK_CONFIG or ~/.newsdesk/config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newListCmd(),
		newPublishCmd(),
		newRemoveCmd(),
		newImportCmd(),
	)
	return rootCmd
}

// app is everything a command needs once the config has been read and the
// remote tree opened.
type app struct {
	cfg     *config.FileConfig
	logger  *slog.Logger
	store   *store.Store
	gateway *gateway.Gateway
	close   func() error
}

// setup loads the config, opens the remote tree and fills the store from
// it. Per-section load failures are logged and do not stop the command.
func setup(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	acfg, err := cfg.ArticleConfig()
	if err != nil {
		return nil, err
	}

	tree, closeTree, err := openTree(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(tree, logger)
	gw.LocationOverride = cfg.DebugLocation

	s := store.New(acfg, cfg.DefaultAuthor)
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	result, err := s.Load(loadCtx, gw)
	if err != nil {
		_ = closeTree()
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}
	for _, le := range result.Errors {
		logger.Warn("skipped while loading", "error", le.Error())
	}
	logger.Debug("articles loaded", "count", result.Loaded, "remote", cfg.Remote.Type)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		gateway: gw,
		close:   closeTree,
	}, nil
}

// newLogger builds the process logger from log_level and log_format.
func newLogger(cfg *config.FileConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
