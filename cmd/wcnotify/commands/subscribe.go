package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func subscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe [appDomain]",
		Short: "Subscribe to a dapp's notifications with all declared types enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if account == "" {
				return fmt.Errorf("--account is required")
			}
			id, _, err := wire.Engine.Subscribe(cmd.Context(), args[0], domain.Account(account))
			if err != nil {
				return err
			}
			fmt.Printf("Subscribe request %d sent; the subscription arrives via the watch channel\n", id)
			return nil
		},
	}
	return cmd
}
