package cli

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/rest"
	"tripy/photo-app/internal/client/uploader"
)

var uploadTripID int

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a photo to the selected trip",
	Long: `Uploads one photo. Without --trip the first trip in your list is
used, matching the auto-selection on the mobile upload screen.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

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

		if cmd.Flags().Changed("trip") {
			if err := machine.SelectTripID(uploadTripID); err != nil {
				return fmt.Errorf("trip %d: %w", uploadTripID, err)
			}
		}

		mimeType := mime.TypeByExtension(filepath.Ext(path))
		err = machine.PickImage(uploader.PickedImage{
			URI:      path,
			FileName: filepath.Base(path),
			MIMEType: mimeType,
		})
		if err != nil {
			return err
		}

		ack, err := machine.Upload(cmd.Context())
		if err != nil {
			switch {
			case errors.Is(err, uploader.ErrNoTripSelected):
				return fmt.Errorf("no trip to upload to; create one with `tripy trips add` first")
			case errors.Is(err, rest.ErrAuthExpired):
				return fmt.Errorf("session expired; run `tripy login` again")
			default:
				return fmt.Errorf("upload failed: %w", err)
			}
		}

		tripID, _ := machine.SelectedTripID()
		fmt.Printf("%s: stored as %s (trip %d)\n", ack.Message, ack.FileName, tripID)
		return nil
	},
}

func init() {
	uploadCmd.Flags().IntVar(&uploadTripID, "trip", 0, "Trip id to attach the photo to (default: first trip)")
	rootCmd.AddCommand(uploadCmd)
}
