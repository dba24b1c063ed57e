package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzheavier/buzzheavier-go/internal/api"
	"github.com/buzzheavier/buzzheavier-go/internal/config"
	"github.com/buzzheavier/buzzheavier-go/internal/dirstate"
	"github.com/buzzheavier/buzzheavier-go/internal/session"
	"github.com/buzzheavier/buzzheavier-go/internal/tokenstore"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagBaseURL    string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// It is available to all subcommands after the root pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "buzzheavier-go",
		Short:   "BuzzHeavier CLI client",
		Long:    "A CLI client for browsing and mutating a BuzzHeavier file store.",
		Version: version,
		// Errors and usage are printed by exitOnError, not by Cobra.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL override")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLocationsCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// and stores the result in resolvedCfg for use by subcommands.
func loadConfig() error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		BaseURL:    flagBaseURL,
	}

	cfg, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	// CLI flags override config (highest priority).
	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app bundles the wired-up components behind every command: config,
// logger, session manager, API client, and directory state cache.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	sess   *session.Manager
	client *api.Client
	cache  *dirstate.Cache
}

// newApp wires the components together and restores any persisted
// session. The session manager is created first because the client reads
// tokens from it; the account fetcher is attached afterwards.
func newApp() (*app, error) {
	logger := buildLogger()
	cfg := resolvedCfg

	store := tokenstore.New(cfg.TokenPath)
	sess := session.New(store, logger)

	client := api.NewClient(sess, api.Options{
		BaseURL:          cfg.BaseURL,
		UploadBaseURL:    cfg.UploadBaseURL,
		HTTPClient:       &http.Client{Timeout: cfg.HTTPTimeout()},
		UploadHTTPClient: &http.Client{Timeout: cfg.UploadTimeout()},
		Logger:           logger,
	})
	sess.SetAccountFetcher(client)

	if _, err := sess.Restore(); err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		sess:   sess,
		client: client,
		cache:  dirstate.New(client, logger),
	}, nil
}

// friendlyErr maps internal errors to actionable CLI messages.
func friendlyErr(err error) error {
	if errors.Is(err, api.ErrUnauthenticated) {
		return fmt.Errorf("not logged in, run 'buzzheavier-go login' first")
	}

	return err
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
