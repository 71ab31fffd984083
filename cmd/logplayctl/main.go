package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	dataFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logplayctl",
		Short: "CLI for the log playback engine",
		Long: `logplayctl drives a log playback Factory from the command line:
replay recorded topics against the live messaging fabric, or adjust
diagnostics verbosity.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&dataFile, "file", "", "log store connection string or path (required)")

	rootCmd.AddCommand(
		newVerbosityCmd(),
		newRecordTopicsCmd(),
		newPlaybackTopicsCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
