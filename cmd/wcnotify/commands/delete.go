package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [topic]",
		Short: "Ask the dapp to drop a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Engine.DeleteSubscription(cmd.Context(), domain.Topic(args[0])); err != nil {
				return err
			}
			fmt.Println("Delete requested; local state clears once the server confirms")
			return nil
		},
	}
	return cmd
}
