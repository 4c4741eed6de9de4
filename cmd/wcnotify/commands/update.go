package commands

import (
	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func updateCmd() *cobra.Command {
	var scope []string

	cmd := &cobra.Command{
		Use:   "update [topic]",
		Short: "Replace the enabled notification types of a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.Engine.Update(cmd.Context(), domain.Topic(args[0]), scope)
		},
	}
	cmd.Flags().StringSliceVar(&scope, "scope", nil, "notification types to keep enabled (empty disables all)")
	return cmd
}
