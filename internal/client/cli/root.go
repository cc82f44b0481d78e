package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/config"
	"github.com/spf13/cobra"
)

type sessionKey struct{}

// session holds the App built for the running command.
type session struct {
	app *App
}

func (s *session) close() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

// NewRootCmd builds the client command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *session) {
	var flags *config.Flags
	s := &session{}

	root := &cobra.Command{
		Use:   "estimatekeeper",
		Short: "Offline-first estimates with background sync",
		Long: `estimatekeeper keeps customers, estimates, line items, photos and the
item catalog in a local SQLite database and pushes every change to the
remote store when the server is reachable.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			s.app = app
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, s))
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return s.close()
		},
	}

	flags = config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(),
		newSyncCmd(),
		newBootstrapCmd(),
		newResetCmd(),
		newClearCmd(),
		newStatusCmd(),
		newQueueCmd(),
		newCustomerCmd(),
		newEstimateCmd(),
		newItemCmd(),
		newPhotoCmd(),
		newCatalogCmd(),
		newVersionCmd(),
	)
	return root, s
}

// Execute runs the command tree with args. The App is closed even when the
// command fails.
func Execute(ctx context.Context, args []string) error {
	root, s := newRoot()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func appFrom(cmd *cobra.Command) (*App, error) {
	s, ok := cmd.Context().Value(sessionKey{}).(*session)
	if !ok || s.app == nil {
		return nil, fmt.Errorf("client not initialized")
	}
	return s.app, nil
}
