package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List active subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			subs, err := wire.Engine.ActiveSubscriptions(domain.Account(account))
			if err != nil {
				return err
			}
			for topic, sub := range subs {
				enabled := make([]string, 0, len(sub.Scope))
				for name, setting := range sub.Scope {
					if setting.Enabled {
						enabled = append(enabled, name)
					}
				}
				fmt.Printf("%s\n  app: %s  account: %s  scope: %s\n",
					topic, sub.Metadata.AppDomain, sub.Account, strings.Join(enabled, ","))
			}
			return nil
		},
	}
	return cmd
}
