package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/rest"
	"tripy/photo-app/internal/client/session"
	"tripy/photo-app/internal/client/uploader"
)

var addTripTitle string

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "List your trips",
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, _, err := newMachine()
		if err != nil {
			return err
		}

		if err := machine.Start(cmd.Context()); err != nil {
			if errors.Is(err, uploader.ErrNotAuthenticated) {
				return fmt.Errorf("not logged in; run `tripy login` first")
			}
			if errors.Is(err, rest.ErrAuthExpired) {
				return fmt.Errorf("session expired; run `tripy login` again")
			}
			return err
		}

		trips := machine.Trips()
		if len(trips) == 0 {
			fmt.Println("No trips yet. Create one with `tripy trips add --title <title>`.")
			return nil
		}

		selected, _ := machine.SelectedTripID()
		for _, t := range trips {
			marker := " "
			if t.ID == selected {
				marker = "*"
			}
			fmt.Printf("%s %3d  %s\n", marker, t.ID, t.Title)
		}
		return nil
	},
}

var tripsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new trip",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addTripTitle == "" {
			return fmt.Errorf("--title is required")
		}

		store, err := newSessionStore()
		if err != nil {
			return err
		}
		sess, err := store.Get()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return fmt.Errorf("not logged in; run `tripy login` first")
			}
			return err
		}

		client := rest.NewClient(resolveServerURL())
		client.SetToken(sess.Token)

		trip, err := client.CreateTrip(cmd.Context(), addTripTitle)
		if err != nil {
			if errors.Is(err, rest.ErrAuthExpired) {
				_ = store.Delete()
				return fmt.Errorf("session expired; run `tripy login` again")
			}
			return fmt.Errorf("failed to create trip: %w", err)
		}

		fmt.Printf("Created trip %d: %s\n", trip.ID, trip.Title)
		return nil
	},
}

func init() {
	tripsAddCmd.Flags().StringVar(&addTripTitle, "title", "", "Title of the new trip")
	tripsCmd.AddCommand(tripsAddCmd)
	rootCmd.AddCommand(tripsCmd)
}
