package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsHistory string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the tagged sessions found in the conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := sessionsHistory
		if pattern == "" {
			pattern = cfg.HistoryPath
		}

		all, err := newHistorySource(pattern, "")
		if err != nil {
			return err
		}

		sessions, err := all.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found")
			return nil
		}

		for _, session := range sessions {
			source, err := newHistorySource(pattern, session)
			if err != nil {
				return err
			}
			stats, err := source.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats for session %s: %w", session, err)
			}

			if stats.Last.IsZero() {
				fmt.Fprintf(out, "%s  %d messages\n", session, stats.Count)
				continue
			}
			fmt.Fprintf(out, "%s  %d messages  last %s\n", session, stats.Count, stats.Last.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().StringVar(&sessionsHistory, "history", "", "Transcript glob (default from POLAR_HISTORY_PATH)")
}
