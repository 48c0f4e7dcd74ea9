// Package cli implements the dirauth command line interface. Commands print
// their results on stdout; logs go to stderr so token output stays pipeable.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/dirauth/internal/dirauth/app"
)

// runtime lazily wires the application so commands that never touch the
// cache (like inspect) do not create the database file.
type runtime struct {
	app *app.Application
}

func (rt *runtime) ensure() (*app.Application, error) {
	if rt.app != nil {
		return rt.app, nil
	}
	a, err := app.New(app.LoadConfig())
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a, nil
}

// NewRootCmd builds the dirauth command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "dirauth",
		Short: "Acquire and renew directory-service access tokens",
		Long: `dirauth signs users in against a directory service, caches the
resulting tokens in an encrypted local store and renews them silently on use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app == nil {
				return nil
			}
			return rt.app.Close()
		},
	}

	root.AddCommand(
		newLoginCmd(rt),
		newTokenCmd(rt),
		newAccountsCmd(rt),
		newCallCmd(rt),
		newInspectCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
