package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wcnotify/internal/app"
)

var (
	home            string
	relayURL        string
	keyserverURL    string
	notifyServerURL string
	account         string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "wcnotify",
		Short: "Wallet-side client for encrypted dapp push notifications",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".wcnotify")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			w, err := app.NewWire(cmd.Context(), app.Config{
				Home:            home,
				RelayURL:        relayURL,
				KeyserverURL:    keyserverURL,
				NotifyServerURL: notifyServerURL,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			if err := w.Engine.Start(cmd.Context()); err != nil {
				w.Close()
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if wire != nil {
				wire.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.wcnotify)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "wss://relay.walletconnect.com", "relay websocket URL")
	root.PersistentFlags().StringVar(&keyserverURL, "keyserver", "https://keys.walletconnect.com", "identity keyserver URL")
	root.PersistentFlags().StringVar(&notifyServerURL, "notify-server", "notify.walletconnect.com", "notify server domain")
	root.PersistentFlags().StringVarP(&account, "account", "a", "", "CAIP-10 account, e.g. eip155:1:0xab...")

	root.AddCommand(
		registerCmd(),
		subscribeCmd(),
		updateCmd(),
		deleteCmd(),
		subscriptionsCmd(),
		messagesCmd(),
		listenCmd(),
	)
	return root.Execute()
}
