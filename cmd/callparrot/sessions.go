package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

func newSessionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored dialogue sessions",
	}
	cmd.AddCommand(newPurgeCmd(c))
	return cmd
}

func newPurgeCmd(c *cli) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete sessions idle for longer than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.profile.Driver == profile.DriverMemory {
				return fmt.Errorf("nothing to purge: the memory driver keeps no sessions between runs")
			}

			retention := olderThan
			if retention <= 0 {
				retention = c.profile.SessionRetention
			}

			store, err := openStore(cmd.Context(), c.profile, nil)
			if err != nil {
				return err
			}
			defer store.close()

			purged, err := session.NewCleanupJob(store, session.CleanupConfig{Retention: retention}).RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge sessions: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d session(s) idle for more than %s\n", purged, retention)
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "idle time after which a session is purged (default: session_retention)")
	return cmd
}
