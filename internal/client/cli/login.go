package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/rest"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" || loginPassword == "" {
			return fmt.Errorf("both --email and --password are required")
		}

		store, err := newSessionStore()
		if err != nil {
			return err
		}

		client := rest.NewClient(resolveServerURL())
		sess, err := client.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := store.Set(sess); err != nil {
			return fmt.Errorf("login succeeded but storing the session failed: %w", err)
		}

		fmt.Printf("Logged in as %s (%s)\n", sess.UserName, sess.UserID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	rootCmd.AddCommand(loginCmd)
}
