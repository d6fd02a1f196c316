package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"media-library/internal/database"
	"media-library/internal/history"
	"media-library/internal/logging"
	"media-library/internal/startup"
)

type rootOptions struct {
	libraryDir string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "medialib",
		Short:         "medialib - batch video compression for a media library",
		Long:          "medialib compresses the videos of a media library with ffmpeg and keeps a history of files already done.",
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.PersistentFlags().StringVarP(&opts.libraryDir, "library", "l", "", "library root (default: stored setting, then LIBRARY_DIR)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newCompressCmd(opts))
	cmd.AddCommand(newHistoryCmd())
	return cmd
}

// environment is the shared state every subcommand opens.
type environment struct {
	config *startup.Config
	db     *database.Database
	ledger *history.Ledger
}

func openEnvironment(ctx context.Context) (*environment, error) {
	config, err := startup.LoadQuietConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	ledger := history.Open(config.HistoryPath)
	ledger.Load()
	return &environment{config: config, db: db, ledger: ledger}, nil
}

func (e *environment) Close() {
	if err := e.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
}

// libraryRoot picks the --library flag, then the stored setting, then
// LIBRARY_DIR.
func (e *environment) libraryRoot(ctx context.Context, flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	return e.db.LibraryPath(ctx, e.config.LibraryDir), nil
}
