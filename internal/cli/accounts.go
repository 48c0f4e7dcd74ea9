package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts in the local token cache",
	}
	cmd.AddCommand(newAccountsListCmd(rt), newAccountsRemoveCmd(rt))
	return cmd
}

func newAccountsListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.ensure()
			if err != nil {
				return err
			}

			accounts, err := a.Cache().Accounts(cmd.Context(), a.AuthConfig().ClientID)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached accounts.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tHOME ACCOUNT ID\tLOGIN TYPE")
			for _, acct := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", acct.Username, acct.HomeAccountID, acct.LoginType())
			}
			return w.Flush()
		},
	}
}

func newAccountsRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a cached account and its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.ensure()
			if err != nil {
				return err
			}

			clientID := a.AuthConfig().ClientID
			accounts, err := a.Cache().Accounts(cmd.Context(), clientID)
			if err != nil {
				return err
			}

			for _, acct := range accounts {
				if acct.Username != args[0] && acct.HomeAccountID != args[0] {
					continue
				}
				if err := a.Cache().RemoveAccount(cmd.Context(), clientID, acct.HomeAccountID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", acct.Username)
				return nil
			}
			return fmt.Errorf("no cached account matches %q", args[0])
		},
	}
}
