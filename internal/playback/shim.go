package playback

import (
	"context"

	"github.com/darkden-lab/logplay/internal/diag"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/store"
)

// Return codes mirrored from the flat C-compatible surface this package
// stands in for: every entry point below reports one of these instead of
// a Go error, so callers that only understand an integer status code
// still get a meaningful answer.
const (
	SUCCESS        = 0
	FAILedToOpen   = 1
	BadRegex       = 2
	InvalidVersion = 3
)

// Verbosity sets the package-wide diagnostic level. It returns
// InvalidVersion if level is outside diag's known range, SUCCESS
// otherwise.
func Verbosity(level int) int {
	if !diag.SetVerbosity(level) {
		return InvalidVersion
	}
	return SUCCESS
}

// PlaybackTopics opens a Store against dsn, restricts playback to topics
// matching pattern, runs the replay to completion against an in-process
// fabric node, and blocks until it finishes. It is the minimal one-shot
// entry point for callers that don't need a live Factory handle.
func PlaybackTopics(ctx context.Context, dsn, pattern string) int {
	st, err := store.Open(ctx, dsn, "")
	if err != nil || !st.Valid() {
		return FAILedToOpen
	}
	defer st.Close()

	f := New(st, func() (fabric.Node, error) {
		return fabric.NewInProcNode(), nil
	})

	if _, err := f.AddPattern(ctx, pattern); err != nil {
		return BadRegex
	}

	session, err := f.Start(ctx, 0)
	if err != nil {
		return FAILedToOpen
	}
	if session == nil {
		return FAILedToOpen
	}
	session.WaitUntilFinished()

	return SUCCESS
}

// RecordTopics is explicitly out of scope for this engine: recording a
// new log is a companion pipeline, not part of playback. It exists here
// only so callers expecting the full flat surface get a clear diagnostic
// instead of a missing symbol.
func RecordTopics(_ context.Context, _, _ string) int {
	log.Errorf("record-topics is not implemented by this engine, it only replays existing logs")
	return FAILedToOpen
}
