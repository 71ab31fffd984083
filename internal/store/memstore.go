package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/darkden-lab/logplay/internal/catalog"
)

// MemStore is an in-memory Store, reached only through the Go API (the
// playback package's tests use it; the CLI opens a PostgresStore). It
// deliberately reports ThreadsafeCapability()==false so the Factory's
// single-session gate (spec.md §4.E, §8 scenario 5) can be exercised
// without a real database, the way the teacher's InMemoryBroker stands in
// for KafkaBroker in unit tests.
type MemStore struct {
	mu       sync.Mutex
	messages []catalog.Message
	valid    bool
}

// NewMemStore creates an empty, valid MemStore.
func NewMemStore() *MemStore {
	return &MemStore{valid: true}
}

// Append records a message as if it had been captured at TimeReceived. It is
// the only way to seed a MemStore; this engine has no recording pipeline.
func (m *MemStore) Append(msg catalog.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MemStore) Valid() bool { return m.valid }

func (m *MemStore) ThreadsafeCapability() bool { return false }

func (m *MemStore) Close() error { return nil }

func (m *MemStore) Descriptor(ctx context.Context) (catalog.Catalog, error) {
	if !m.valid {
		return nil, fmt.Errorf("store is not valid")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cat := make(catalog.Catalog)
	for _, msg := range m.messages {
		if cat[msg.Topic] == nil {
			cat[msg.Topic] = make(map[string]struct{})
		}
		cat[msg.Topic][msg.Type] = struct{}{}
	}
	return cat, nil
}

func (m *MemStore) QueryMessages(ctx context.Context, topics []string) (Batch, error) {
	if !m.valid {
		return nil, fmt.Errorf("store is not valid")
	}

	wanted := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		wanted[t] = struct{}{}
	}

	m.mu.Lock()
	matched := make([]catalog.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if _, ok := wanted[msg.Topic]; ok {
			matched = append(matched, msg)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimeReceived < matched[j].TimeReceived
	})

	return &memBatch{messages: matched, idx: -1}, nil
}

// memBatch is a forward-only, single-consumption iterator over a slice
// snapshot taken at QueryMessages time.
type memBatch struct {
	messages []catalog.Message
	idx      int
}

func (b *memBatch) Next() bool {
	b.idx++
	return b.idx < len(b.messages)
}

func (b *memBatch) Message() catalog.Message {
	return b.messages[b.idx]
}

func (b *memBatch) Err() error { return nil }

func (b *memBatch) Close() error { return nil }
