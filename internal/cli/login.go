package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache a token",
		Long: `Sign in against the directory service and store the result in the
local token cache.

With --username and --password the credentials are exchanged directly.
Otherwise the device-code flow runs: follow the printed instructions to
complete sign-in on another device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.ensure()
			if err != nil {
				return err
			}

			var secret *string
			if cmd.Flags().Changed("password") {
				secret = &password
			}
			prompt := func(message string) {
				fmt.Fprintln(cmd.OutOrStdout(), message)
			}

			handle, err := a.Engine().GetAccessToken(
				cmd.Context(),
				a.AuthConfig(),
				dirauth.PromptAuto,
				prompt,
				username,
				secret,
				dirauth.CredentialKindUser,
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (tenant %s), token valid until %s\n",
				handle.UserID(),
				handle.TenantID(),
				handle.ExpiresOn().Format(time.RFC3339),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "sign-in name, e.g. user@tenant.example.com")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for direct credential exchange")
	return cmd
}
