package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/rest"
)

var (
	registerName     string
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if registerName == "" || registerEmail == "" || registerPassword == "" {
			return fmt.Errorf("--name, --email and --password are all required")
		}

		client := rest.NewClient(resolveServerURL())
		if err := client.Register(cmd.Context(), registerName, registerEmail, registerPassword); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Println("Account created. Run `tripy login` to log in.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (min 8 characters)")
	rootCmd.AddCommand(registerCmd)
}
