package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "game <id>",
		Short: "Get game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Room
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/games/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newWinnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "winners",
		Short: "Show the winners table",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Winner

			if err := client.Get(cmd.Context(), "/api/v1/winners", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
