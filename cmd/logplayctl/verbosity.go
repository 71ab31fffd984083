package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/darkden-lab/logplay/internal/playback"
)

func newVerbosityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verbosity <level>",
		Short: "Set the diagnostics verbosity level (0=silent .. 4=debug)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("level must be an integer in [0,4]: %w", err)
			}
			if rc := playback.Verbosity(level); rc != playback.SUCCESS {
				return fmt.Errorf("invalid verbosity level %d", level)
			}
			fmt.Printf("verbosity set to %d\n", level)
			return nil
		},
	}
}
