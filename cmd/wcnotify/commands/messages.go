package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func messagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages [topic]",
		Short: "Show the received messages of a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := wire.Engine.MessageHistory(domain.Topic(args[0]))
			if err != nil {
				return err
			}
			for _, rec := range recs {
				at := time.UnixMilli(rec.PublishedAt).Format(time.RFC3339)
				fmt.Printf("[%s] %s: %s (%s)\n", at, rec.Message.Title, rec.Message.Body, rec.Message.Type)
			}
			return nil
		},
	}
	return cmd
}
