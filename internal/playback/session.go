// Package playback implements the Session/PlaybackHandle (component D) and
// the Factory/Playback (component E) that together drive one replay of a
// log against the live messaging fabric.
package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkden-lab/logplay/internal/diag"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/registry"
	"github.com/darkden-lab/logplay/internal/scheduler"
	"github.com/darkden-lab/logplay/internal/store"
)

var log = diag.New("playback")

// Session is one active replay: a PublisherRegistry, the Scheduler worker
// that drains a Batch through it, and the control flags/channels that let
// callers stop the replay or wait for it to finish.
type Session struct {
	registry *registry.Registry
	batch    store.Batch

	finished atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// newSession constructs and starts a Session on node, which the caller has
// already constructed and whose ownership passes to the Session's registry.
// It performs, in order: advertising every resolved topic, the
// post-advertise settle sleep, the batch query, and launching the worker —
// matching PlaybackHandle::Implementation::Implementation in the source
// this engine replays.
func newSession(ctx context.Context, st store.Store, topics map[string]struct{}, settle time.Duration, node fabric.Node) (*Session, error) {
	cat, err := st.Descriptor(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(node)
	for topic := range topics {
		reg.EnsureTopic(cat, topic)
	}

	if settle > 0 {
		time.Sleep(settle)
	}

	topicList := make([]string, 0, len(topics))
	for topic := range topics {
		topicList = append(topicList, topic)
	}

	batch, err := st.QueryMessages(ctx, topicList)
	if err != nil {
		reg.Close()
		return nil, err
	}

	s := &Session{
		registry: reg,
		batch:    batch,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go s.run()

	return s, nil
}

func (s *Session) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("playback worker failed: %v", r)
		}
		s.finished.Store(true)
		close(s.doneCh)
	}()

	scheduler.Run(s.batch, s.registry, s.stopCh)
}

// Stop signals the worker to stop, then blocks until it has actually
// exited. Idempotent and safe to call from any goroutine; after it
// returns, Finished() is true and no further publish calls will occur for
// this Session.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

// WaitUntilFinished blocks until the Session's worker has exited. It
// returns immediately if the worker has already finished.
func (s *Session) WaitUntilFinished() {
	<-s.doneCh
}

// Finished returns a non-blocking snapshot of whether the worker has
// exited.
func (s *Session) Finished() bool {
	return s.finished.Load()
}

// Close releases the Session's resources: it first stops the worker (a
// no-op if already stopped), then releases the PublisherRegistry (which in
// turn closes the fabric node), then the Batch cursor. A Session never
// outlives its worker.
func (s *Session) Close() error {
	s.Stop()
	err := s.registry.Close()
	if cerr := s.batch.Close(); err == nil {
		err = cerr
	}
	return err
}
