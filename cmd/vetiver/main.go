package main

import (
	"os"

	"github.com/spf13/cobra"

	"vetiver/internal/interfaces/cli/migrate"
	"vetiver/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetiver",
		Short: "Vetiver - subscription cycle worker",
		Long:  `Vetiver keeps subscriber billing cycles consistent: it applies order events, realigns reset schedules after plan changes, corrects schedule drift, and grants early resets.`,
	}

	rootCmd.AddCommand(
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
