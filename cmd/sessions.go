package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eva-assistant/eva/internal/conversation"
)

// NewSessionsCmd creates the sessions command (factory pattern).
func NewSessionsCmd(store *conversation.Store) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage stored conversation sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCmd(store))
	sessionsCmd.AddCommand(newSessionsShowCmd(store))
	sessionsCmd.AddCommand(newSessionsDeleteCmd(store))
	sessionsCmd.AddCommand(newSessionsUseCmd(store))
	sessionsCmd.AddCommand(newSessionsCurrentCmd())

	return sessionsCmd
}

func newSessionsListCmd(store *conversation.Store) *cobra.Command {
	var (
		owner string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions for an owner, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd.Context(), cmd, store, owner, limit)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner whose sessions to list")
	cmd.Flags().IntVar(&limit, "limit", conversation.DefaultListLimit, "maximum number of sessions to return")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func newSessionsShowCmd(store *conversation.Store) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsShow(cmd.Context(), cmd, store, args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of messages to show (0 = configured default)")

	return cmd
}

func newSessionsDeleteCmd(store *conversation.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsDelete(cmd.Context(), cmd, store, args[0])
		},
	}
}

func newSessionsUseCmd(store *conversation.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "use <session-id>",
		Short: "Mark a session as the locally active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]

			exists, err := store.SessionExists(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to check session: %w", err)
			}
			if !exists {
				return fmt.Errorf("unknown session: %s", sessionID)
			}

			if err := conversation.SaveCurrentSessionID(sessionID); err != nil {
				return fmt.Errorf("failed to save current session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current session set to %s\n", sessionID)
			return nil
		},
	}
}

func newSessionsCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the locally active session id",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := conversation.LoadCurrentSessionID()
			if err != nil {
				return fmt.Errorf("failed to load current session: %w", err)
			}
			if sessionID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No current session.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), sessionID)
			return nil
		},
	}
}

func runSessionsList(ctx context.Context, cmd *cobra.Command, store *conversation.Store, owner string, limit int) error {
	sessions, err := store.Sessions(ctx, owner, limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}

	for _, session := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  messages=%d  created=%s  active=%s\n",
			session.ID,
			session.MessageCount,
			formatTime(session.CreatedAt),
			formatTime(session.UpdatedAt),
		)
	}

	return nil
}

func runSessionsShow(ctx context.Context, cmd *cobra.Command, store *conversation.Store, sessionID string, limit int) error {
	session, err := store.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	messages, err := store.History(ctx, sessionID, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session ID: %s\n", session.ID)
	fmt.Fprintf(out, "Owner: %s\n", session.OwnerID)
	fmt.Fprintf(out, "Created: %s\n", formatTime(session.CreatedAt))
	fmt.Fprintf(out, "Updated: %s\n", formatTime(session.UpdatedAt))
	fmt.Fprintf(out, "Messages: %d\n", session.MessageCount)
	fmt.Fprintln(out)

	for _, msg := range messages {
		fmt.Fprintf(out, "[%s] %s\n", msg.Role, msg.Content)
	}

	return nil
}

func runSessionsDelete(ctx context.Context, cmd *cobra.Command, store *conversation.Store, sessionID string) error {
	deleted, err := store.DeleteSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if !deleted {
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s not found.\n", sessionID)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", sessionID)
	return nil
}

// formatTime formats time in a human-readable format.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
