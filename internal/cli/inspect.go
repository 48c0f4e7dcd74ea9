package cli

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Decode an access token's claims without verifying it",
		Long: `Decode and print the claims of an access token. The signature is
not checked; this is for display and debugging only. Reads the token from
the argument, or from stdin when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 64*1024), 64*1024)
				if !scanner.Scan() {
					return fmt.Errorf("no token on stdin")
				}
				token = strings.TrimSpace(scanner.Text())
			}

			claims, err := jwtx.DecodeUnverified(token)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "Username\t%s\n", claims.Username())
			fmt.Fprintf(w, "Subject\t%s\n", claims.Subject)
			fmt.Fprintf(w, "Tenant\t%s\n", claims.TenantID)
			fmt.Fprintf(w, "Client\t%s\n", claims.AppID)
			fmt.Fprintf(w, "Issuer\t%s\n", claims.Issuer)
			if len(claims.Audience) > 0 {
				fmt.Fprintf(w, "Audience\t%s\n", strings.Join(claims.Audience, ", "))
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(w, "Expires\t%s\n", claims.ExpiresAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
