// Command penguinctl inspects recorded penguin runs: the episode database
// and the decision trajectory files.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "penguinctl",
		Short:         "Inspect penguin episode databases and trajectory files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, envFile := range []string{
		".env",
		"../../.env",
		"../../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(newEpisodesCmd(), newRunsCmd(), newTrajectoryCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "penguinctl:", err)
		os.Exit(1)
	}
}
