package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/uploader"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, _, err := newMachine()
		if err != nil {
			return err
		}

		// Start may fail when the session is already gone or expired; the
		// local teardown below still runs either way.
		if err := machine.Start(cmd.Context()); err != nil && errors.Is(err, uploader.ErrNotAuthenticated) {
			fmt.Println("Already logged out.")
			return nil
		}

		if err := machine.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
