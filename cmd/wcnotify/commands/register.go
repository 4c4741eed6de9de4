package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wcnotify/internal/domain"
)

func registerCmd() *cobra.Command {
	var limited bool
	var appDomain string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an identity key for your account and start watching subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if account == "" {
				return fmt.Errorf("--account is required")
			}

			// The statement must be signed with the account's blockchain key;
			// this CLI prompts for a signature produced out of band.
			onSign := func(message string) (string, error) {
				fmt.Println("Sign the following statement with your account key:")
				fmt.Println()
				fmt.Println(message)
				fmt.Println()
				fmt.Print("Signature (hex): ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return "", err
				}
				return strings.TrimSpace(line), nil
			}

			identityKey, err := wire.Engine.Register(cmd.Context(), domain.RegisterIdentityParams{
				Account:   domain.Account(account),
				OnSign:    onSign,
				IsLimited: limited,
				Domain:    appDomain,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered identity key %s\n", identityKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&limited, "limited", false, "authorize notifications for one dapp only")
	cmd.Flags().StringVar(&appDomain, "domain", "", "dapp domain requesting the authorization")
	return cmd
}
