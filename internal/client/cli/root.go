// Package cli is the command-line front end for the upload session. Each
// command drives the uploader.Machine the same way the mobile screens do:
// load session, fetch trips, select, pick, upload.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tripy/photo-app/internal/client/rest"
	"tripy/photo-app/internal/client/session"
	"tripy/photo-app/internal/client/uploader"
)

var (
	serverURL  string
	sessionDir string
)

const defaultServerURL = "http://localhost:8080"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "tripy",
	Short: "Upload trip photos to a Tripy server",
	Long: `tripy is the command-line client for the Tripy photo server.

Log in once, then upload photos against one of your trips. The login
session is stored locally and reused until it expires or you log out.

Environment Variables:
  TRIPY_SERVER_URL  Server base URL (default: ` + defaultServerURL + `)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server base URL (overrides TRIPY_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionDir, "session-dir", "", "Directory holding the stored session (default: ~/.tripy)")
}

// resolveServerURL returns the server URL from flag, env, or default.
func resolveServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if envURL := os.Getenv("TRIPY_SERVER_URL"); envURL != "" {
		return envURL
	}
	return defaultServerURL
}

// resolveSessionDir returns the session directory from flag or default.
func resolveSessionDir() (string, error) {
	if sessionDir != "" {
		return sessionDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".tripy"), nil
}

// newSessionStore builds the file-backed session store.
func newSessionStore() (session.Store, error) {
	dir, err := resolveSessionDir()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(dir)
}

// newMachine wires a rest client and session store into an upload machine.
func newMachine() (*uploader.Machine, session.Store, error) {
	store, err := newSessionStore()
	if err != nil {
		return nil, nil, err
	}
	client := rest.NewClient(resolveServerURL())
	return uploader.New(client, store), store, nil
}
