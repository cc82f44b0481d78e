package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/services"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stay running and sync in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "background sync started, press Ctrl+C to stop")
			return app.Runner().Run(cmd.Context())
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push queued local changes to the server now",
		Long: `Push queued local changes to the server now. Entries are sent oldest
first; an entry that fails stays queued and is retried by the next sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			report, err := app.Sync.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := app.Media.UploadPending(cmd.Context()); err != nil {
				app.logger.Warn(cmd.Context(), "photo upload failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d, failed %d, remaining %d\n",
				report.Synced, report.Failed, report.Remaining)
			return nil
		},
	}
}

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Replace local data with a fresh copy from the server",
		Long: `Replace local data with a fresh copy from the server. Unsynced local
changes are discarded. Nothing local changes if the download fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			err = app.Bootstrap.BootstrapWithRetry(cmd.Context(), userID, app.cfg.BootstrapAttempts)
			if errors.Is(err, services.ErrBootstrapExhausted) {
				return services.ErrBootstrapExhausted
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local data replaced from server")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the local database file and start empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("reset deletes all local data including unsynced changes; rerun with --confirm")
			}
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := app.Bootstrap.ResetLocalDatabase(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local database reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the reset")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty all local tables, keeping the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := app.Bootstrap.ClearLocalData(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local data cleared")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue length, last sync and server reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			n, err := app.Sync.Pending(ctx)
			if err != nil {
				return err
			}
			last, err := app.Sync.LastSyncAt(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "database\t%s\n", app.store.Path())
			fmt.Fprintf(w, "user\t%s\n", app.cfg.UserID)
			fmt.Fprintf(w, "pending changes\t%d\n", n)
			if last.IsZero() {
				fmt.Fprintf(w, "last sync\tnever\n")
			} else {
				fmt.Fprintf(w, "last sync\t%s\n", last.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the change queue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued changes oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			db, err := app.store.DB()
			if err != nil {
				return err
			}
			changes, err := repomanager.Manager{}.Queue(db).ListPending(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTABLE\tOP\tRECORD\tQUEUED")
			for _, c := range changes {
				id := "?"
				if rec, err := c.Record(); err == nil {
					id = rec.Rev().ID
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Table, c.Op, id, models.FormatTime(c.CreatedAt))
			}
			return w.Flush()
		},
	})
	return cmd
}
