package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strrl/polar-persona/internal/store"
)

var (
	snapshotsLimit   int
	snapshotsAllLang bool
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored blueprint snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshots, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		defer snapshots.Close()

		params := store.ListParams{Limit: snapshotsLimit}
		if !snapshotsAllLang {
			params.Language = cfg.Language
		}

		list, err := snapshots.List(cmd.Context(), params)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No snapshots stored yet")
			return nil
		}
		for _, snap := range list {
			fmt.Fprintf(out, "%s  %s  %s  %d items\n",
				snap.ID, snap.Language, snap.GeneratedAt.Local().Format("2006-01-02 15:04"), snap.Sections.Total())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)

	snapshotsCmd.Flags().IntVarP(&snapshotsLimit, "limit", "n", 20, "Maximum number of snapshots to list")
	snapshotsCmd.Flags().BoolVar(&snapshotsAllLang, "all-languages", false, "List snapshots in every language")
}
