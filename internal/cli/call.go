package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

func newCallCmd(rt *runtime) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "call <url>",
		Short: "GET a URL with a bearer token from the cache",
		Long: `Perform an authenticated GET against a token-protected resource.
The token comes from the cached sign-in and is renewed silently when it is
close to expiry. The response body is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.ensure()
			if err != nil {
				return err
			}

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

			client := httpx.NewAuthClient(handle)
			client.Transport = &httpx.AuthTransport{
				Authorizer: handle,
				Base: httpx.NewRateLimitTransport(
					&httpx.LoggingTransport{},
					httpx.OutboundLimit,
				),
			}

			ctx := slogx.WithContext(cmd.Context(), a.Logger())
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
			if err != nil {
				return err
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
				return err
			}
			if resp.StatusCode >= 400 {
				return fmt.Errorf("request failed with status %s", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "cached account to use when more than one exists")
	return cmd
}
