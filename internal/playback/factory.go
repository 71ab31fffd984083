package playback

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/selection"
	"github.com/darkden-lab/logplay/internal/store"
)

// NodeFactory constructs a fresh fabric.Node for one Session. Each Session
// gets its own Node, matching spec.md §4.D step 1 ("construct the fabric
// node") running once per Session rather than once per Factory.
type NodeFactory func() (fabric.Node, error)

// Factory (Playback) owns a Store and the user's topic Selection, and mints
// Sessions. It enforces the single-session policy described in spec.md
// §4.E when the Store backend is not thread-safe.
type Factory struct {
	store       store.Store
	nodeFactory NodeFactory
	sel         *selection.Selection

	mu          sync.Mutex
	lastSession weak.Pointer[Session]
}

// New creates a Factory bound to st, minting fabric nodes via nodeFactory
// for each Session it starts.
func New(st store.Store, nodeFactory NodeFactory) *Factory {
	return &Factory{
		store:       st,
		nodeFactory: nodeFactory,
		sel:         selection.New(),
	}
}

// Valid reports whether the underlying Store opened successfully.
func (f *Factory) Valid() bool {
	return f.store.Valid()
}

// AddName restricts playback to include topic name, if it exists in the
// catalog.
func (f *Factory) AddName(ctx context.Context, name string) bool {
	cat, err := f.descriptor(ctx)
	if err != nil {
		return false
	}
	return f.sel.AddName(cat, name)
}

// AddPattern restricts playback to include every topic matching pattern.
func (f *Factory) AddPattern(ctx context.Context, pattern string) (int, error) {
	cat, err := f.descriptor(ctx)
	if err != nil {
		return -1, err
	}
	return f.sel.AddPattern(cat, pattern)
}

// RemoveName excludes topic name from playback.
func (f *Factory) RemoveName(ctx context.Context, name string) bool {
	cat, err := f.descriptor(ctx)
	if err != nil {
		return false
	}
	return f.sel.RemoveName(cat, name)
}

// RemovePattern excludes every topic matching pattern from playback.
func (f *Factory) RemovePattern(ctx context.Context, pattern string) (int, error) {
	cat, err := f.descriptor(ctx)
	if err != nil {
		return -1, err
	}
	return f.sel.RemovePattern(cat, pattern)
}

// Start resolves the effective topic set and mints a new Session. It
// returns nil, with a warning logged, if the Store backend is not
// thread-safe and the Factory's previously minted Session is still alive
// and unfinished.
func (f *Factory) Start(ctx context.Context, settle time.Duration) (*Session, error) {
	if !f.Valid() {
		log.Errorf("cannot start playback: store is not valid")
		return nil, fmt.Errorf("store is not valid")
	}

	f.mu.Lock()
	if !f.store.ThreadsafeCapability() {
		if prev := f.lastSession.Value(); prev != nil && !prev.Finished() {
			f.mu.Unlock()
			log.Warnf("store backend is not thread-safe and a session is already running")
			return nil, nil
		}
	}
	f.mu.Unlock()

	cat, err := f.descriptor(ctx)
	if err != nil {
		return nil, err
	}

	topics := f.sel.Resolve(cat)
	if len(topics) == 0 {
		log.Warnf("resolved topic selection is empty, session will finish immediately")
	}

	node, err := f.nodeFactory()
	if err != nil {
		return nil, fmt.Errorf("construct fabric node: %w", err)
	}

	session, err := newSession(ctx, f.store, topics, settle, node)
	if err != nil {
		_ = node.Close()
		return nil, err
	}

	if !f.store.ThreadsafeCapability() {
		f.mu.Lock()
		f.lastSession = weak.Make(session)
		f.mu.Unlock()
	}

	return session, nil
}

// Close closes the Store. The Store is not reference-counted: Sessions this
// Factory minted keep their Batch but hold no share of the Store, so Close
// does not wait for them, and how a still-running Session is affected
// depends on the Store's own Close.
func (f *Factory) Close() error {
	return f.store.Close()
}

func (f *Factory) descriptor(ctx context.Context) (catalog.Catalog, error) {
	return f.store.Descriptor(ctx)
}
