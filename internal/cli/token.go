package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
)

func newTokenCmd(rt *runtime) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token from the cache, renewing if needed",
		Long: `Acquire an access token silently from the cached sign-in and print
it on stdout. Tokens within five minutes of expiry are renewed first. Fails
when no usable cached account exists; run "dirauth login" in that case.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.ensure()
			if err != nil {
				return err
			}

			// A nil prompt keeps the acquisition strictly non-interactive.
			handle, err := a.Engine().GetAccessToken(
				cmd.Context(),
				a.AuthConfig(),
				dirauth.PromptNever,
				nil,
				username,
				nil,
				dirauth.CredentialKindUser,
			)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), handle.AccessToken())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "cached account to use when more than one exists")
	return cmd
}
