// Package cmd provides the eva command line interface.
//
// Commands:
//   - sessions: inspect, resume and delete stored conversation sessions
//   - stats: aggregate store counters for diagnostics
//   - version: build information
//
// The CLI is a thin consumer of the conversation store; it owns no
// persistence logic of its own.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eva-assistant/eva/internal/config"
	"github.com/eva-assistant/eva/internal/conversation"
	"github.com/eva-assistant/eva/internal/database"
	"github.com/eva-assistant/eva/internal/log"
)

func newRootCmd(store *conversation.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eva",
		Short:         "Eva conversation store",
		Long:          "Eva persists multi-turn dialogue sessions and reconstructs bounded context windows for generation calls.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewSessionsCmd(store))
	cmd.AddCommand(NewStatsCmd(store))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute is the main entry point for the eva CLI.
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.SlogLevel(),
		JSON:  cfg.LogJSON,
	})

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	store := conversation.New(db, cfg.HistoryLimit,
		logger.With("component", "conversation"))

	return newRootCmd(store).Execute()
}
