package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/registry"
	"github.com/darkden-lab/logplay/internal/store"
)

// fakeBatch is a forward-only, single-consumption iterator over a fixed
// slice, mirroring store.MemStore's memBatch without depending on it.
type fakeBatch struct {
	messages []catalog.Message
	idx      int
}

func (b *fakeBatch) Next() bool {
	b.idx++
	return b.idx < len(b.messages)
}

func (b *fakeBatch) Message() catalog.Message { return b.messages[b.idx] }
func (b *fakeBatch) Err() error                { return nil }
func (b *fakeBatch) Close() error              { return nil }

var _ store.Batch = (*fakeBatch)(nil)

// fakeNode is a fabric.Node that records every publish with the wall-clock
// instant it happened, and can be configured to fail advertisement for
// specific (topic, type) pairs to exercise the missing-publisher drop path.
type fakeNode struct {
	mu       sync.Mutex
	fail     map[string]bool
	observed []observedPublish
}

type observedPublish struct {
	topic string
	typ   string
	at    time.Time
}

func newFakeNode(failing ...string) *fakeNode {
	fail := make(map[string]bool, len(failing))
	for _, k := range failing {
		fail[k] = true
	}
	return &fakeNode{fail: fail}
}

func (n *fakeNode) Advertise(topic, typ string) (fabric.Publisher, error) {
	if n.fail[topic+":"+typ] {
		return nil, fmt.Errorf("advertise failed for %s:%s", topic, typ)
	}
	return &fakePublisher{node: n, topic: topic, typ: typ}, nil
}

func (n *fakeNode) Close() error { return nil }

func (n *fakeNode) snapshot() []observedPublish {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]observedPublish, len(n.observed))
	copy(out, n.observed)
	return out
}

type fakePublisher struct {
	node  *fakeNode
	topic string
	typ   string
}

func (p *fakePublisher) PublishRaw(data []byte, typ string) error {
	p.node.mu.Lock()
	p.node.observed = append(p.node.observed, observedPublish{topic: p.topic, typ: typ, at: time.Now()})
	p.node.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func registryFor(t *testing.T, node *fakeNode, cat catalog.Catalog) *registry.Registry {
	t.Helper()
	reg := registry.New(node)
	for topic := range cat {
		reg.EnsureTopic(cat, topic)
	}
	return reg
}

func TestRunPublishesInCaptureOrderWithOffsetTiming(t *testing.T) {
	node := newFakeNode()
	cat := catalog.Catalog{"/a": {"T1": {}}, "/b": {"T1": {}}, "/c": {"T1": {}}}
	reg := registryFor(t, node, cat)

	batch := &fakeBatch{messages: []catalog.Message{
		{Topic: "/a", Type: "T1", TimeReceived: 0},
		{Topic: "/b", Type: "T1", TimeReceived: int64(30 * time.Millisecond)},
		{Topic: "/c", Type: "T1", TimeReceived: int64(60 * time.Millisecond)},
	}, idx: -1}

	stopCh := make(chan struct{})
	start := time.Now()
	Run(batch, reg, stopCh)

	got := node.snapshot()
	require.Len(t, got, 3)

	assert.Equal(t, "/a", got[0].topic)
	assert.Equal(t, "/b", got[1].topic)
	assert.Equal(t, "/c", got[2].topic)

	// Never early: each publish must land at or after its relative offset.
	assert.GreaterOrEqual(t, got[1].at.Sub(start), 25*time.Millisecond)
	assert.GreaterOrEqual(t, got[2].at.Sub(start), 55*time.Millisecond)
}

func TestRunStopsEarlyWithoutPublishingRemainder(t *testing.T) {
	node := newFakeNode()
	cat := catalog.Catalog{"/a": {"T1": {}}, "/b": {"T1": {}}}
	reg := registryFor(t, node, cat)

	batch := &fakeBatch{messages: []catalog.Message{
		{Topic: "/a", Type: "T1", TimeReceived: 0},
		{Topic: "/b", Type: "T1", TimeReceived: int64(500 * time.Millisecond)},
	}, idx: -1}

	stopCh := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Run(batch, reg, stopCh)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stopCh)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after stop")
	}

	got := node.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].topic)
}

func TestRunDropsMessagesWithoutAPublisher(t *testing.T) {
	node := newFakeNode("/a:T1")
	cat := catalog.Catalog{"/a": {"T1": {}}}
	reg := registryFor(t, node, cat)

	batch := &fakeBatch{messages: []catalog.Message{
		{Topic: "/a", Type: "T1", TimeReceived: 0},
	}, idx: -1}

	stopCh := make(chan struct{})
	Run(batch, reg, stopCh)

	assert.Empty(t, node.snapshot())
}
