package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darkden-lab/logplay/internal/playback"
)

func newRecordTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record-topics <pattern>",
		Short: "Record topics matching pattern (not implemented by this engine)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataFile == "" {
				return fmt.Errorf("--file is required")
			}
			rc := playback.RecordTopics(context.Background(), dataFile, args[0])
			return exitCodeToErr(rc)
		},
	}
}
