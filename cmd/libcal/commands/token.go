package commands

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	var (
		refresh bool
		show    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch an access token",
		Long:  "Fetch an OAuth access token with the configured client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				fetch := client.Token
				if refresh {
					fetch = client.RefreshToken
				}

				credential, err := fetch(ctx)
				if err != nil {
					return err
				}

				if !show {
					masked := *credential
					masked.AccessToken = constants.MaskedSecret
					credential = &masked
				}

				return renderOutput(cmd.OutOrStdout(), credential, func(w io.Writer) error {
					table := newTable(w, "Property", "Value")
					_ = table.Append("Access token", credential.AccessToken)
					_ = table.Append("Token type", credential.TokenType)
					_ = table.Append("Expires in", strconv.Itoa(credential.ExpiresIn)+"s")
					_ = table.Append("Scope", credential.Scope)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "discard the cached token and fetch a new one")
	cmd.Flags().BoolVar(&show, "show", false, "print the access token")

	return cmd
}
