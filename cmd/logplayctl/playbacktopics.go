package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darkden-lab/logplay/internal/playback"
)

func newPlaybackTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playback-topics <pattern>",
		Short: "Replay every topic matching pattern, blocking until done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataFile == "" {
				return fmt.Errorf("--file is required")
			}
			rc := playback.PlaybackTopics(context.Background(), dataFile, args[0])
			return exitCodeToErr(rc)
		},
	}
}

func exitCodeToErr(rc int) error {
	switch rc {
	case playback.SUCCESS:
		return nil
	case playback.FAILedToOpen:
		return fmt.Errorf("failed to open log store")
	case playback.BadRegex:
		return fmt.Errorf("invalid topic pattern")
	case playback.InvalidVersion:
		return fmt.Errorf("invalid verbosity level")
	default:
		return fmt.Errorf("unknown error code %d", rc)
	}
}
