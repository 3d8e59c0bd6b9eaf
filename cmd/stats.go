package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eva-assistant/eva/internal/conversation"
)

// NewStatsCmd creates the stats command (factory pattern).
func NewStatsCmd(store *conversation.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate conversation store counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sessions: %d\n", stats.TotalSessions)
			fmt.Fprintf(out, "Messages: %d\n", stats.TotalMessages)
			fmt.Fprintf(out, "Active in last 24h: %d\n", stats.RecentSessions)
			fmt.Fprintf(out, "History limit: %d\n", stats.HistoryLimit)
			return nil
		},
	}
}
