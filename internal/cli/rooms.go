package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/pongserver/internal/api/request"
	"github.com/mcoot/pongserver/internal/api/response"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and manage live rooms",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsGetCmd())
	cmd.AddCommand(newRoomsCreateCmd())
	cmd.AddCommand(newRoomsCloseCmd())

	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomList
			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a live room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room
			if err := client.Get("/api/v1/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomsCreateCmd() *cobra.Command {
	var mode, opponent string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room seating the token's player on the left",
		Long: `Create a room. The player named by --token takes the left paddle.

With --mode vs_ai the right paddle is driven by the server. With two_player
an --opponent may be reserved the right seat; otherwise the first other
player to join takes it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if client.token == "" {
				return fmt.Errorf("a player token is required (use --token or PONGCTL_TOKEN)")
			}

			req := request.CreateRoomRequest{Mode: mode, Opponent: opponent}
			var result response.Room
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "two_player", "Room mode: two_player, vs_ai")
	cmd.Flags().StringVar(&opponent, "opponent", "", "Player reserved the right seat")

	return cmd
}

func newRoomsCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <room-id>",
		Short: "Force-close a live room (requires --admin-key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/rooms/" + url.PathEscape(args[0])); err != nil {
				return err
			}

			NewOutputTo(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Closed room %s", args[0]))
			return nil
		},
	}
}
