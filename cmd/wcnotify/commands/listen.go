package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print engine events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.Engine.Events().Subscribe(func(ev domain.Event) {
				switch e := ev.(type) {
				case domain.MessageEvent:
					fmt.Printf("%s %s: %s\n", ev.Name(), e.Message.Title, e.Message.Body)
				case domain.SubscriptionsChangedEvent:
					fmt.Printf("%s (%d subscriptions)\n", ev.Name(), len(e.Subscriptions))
				default:
					fmt.Println(ev.Name())
				}
			})
			<-cmd.Context().Done()
			return nil
		},
	}
	return cmd
}
