package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/harrison/fathom/internal/cmd"
)

// Version is the current version of the fathom application
const Version = "0.3.0"

// exitPartial is returned when a walk was interrupted by a timeout or signal.
const exitPartial = 2

func main() {
	if cmd.Version == "dev" {
		cmd.Version = Version
	}
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cmd.ErrPartialWalk) {
			os.Exit(exitPartial)
		}
		os.Exit(1)
	}
}
