package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/pongserver/internal/api/response"
)

func newPresenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presence",
		Short: "List players connected to the presence channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Presence
			if err := client.Get("/api/v1/presence", &result); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <player-id>",
		Short: "Show a player's recent matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/players/" + url.PathEscape(args[0]) + "/history"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result response.History
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of matches to show")

	return cmd
}
