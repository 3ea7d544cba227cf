package main

import (
	"os"

	"tripy/photo-app/internal/client/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
