package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage player tokens",
	}

	cmd.AddCommand(newTokenIssueCmd())

	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		player string
		secret string
		issuer string
		ttl    time.Duration
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a development token signed with the server secret",
		Long: `Mint an HS256 token for a player using the same secret as the server.

The secret defaults to PONG_JWT_SECRET. With --save the token is written to
the token file so later commands send it automatically.`,
		// Minting is local; skip client setup and token loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a signing secret is required (use --secret or PONG_JWT_SECRET)")
			}

			tokens, err := auth.NewTokens(auth.Config{
				Secret:   secret,
				Issuer:   issuer,
				TokenTTL: ttl,
			}, clock.New())
			if err != nil {
				return err
			}

			token, err := tokens.Issue(model.PlayerID(player))
			if err != nil {
				return err
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(TokenResult{PlayerID: player, Token: token})
			return nil
		},
	}

	defaults := auth.DefaultConfig()
	issuerDefault := defaults.Issuer
	if v := os.Getenv("PONG_JWT_ISSUER"); v != "" {
		issuerDefault = v
	}

	cmd.Flags().StringVar(&player, "player", "", "Player id to embed in the token")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("PONG_JWT_SECRET"), "Signing secret (env: PONG_JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", issuerDefault, "Token issuer (env: PONG_JWT_ISSUER)")
	cmd.Flags().DurationVar(&ttl, "ttl", defaults.TokenTTL, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Save the token to the token file")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}
