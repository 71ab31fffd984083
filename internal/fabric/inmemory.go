package fabric

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InProcSubscriber receives messages published to one (topic, type) pair.
type InProcSubscriber func(data []byte, typ string)

// InProcNode is an in-process fabric node: publishers fan out directly to
// whatever subscribers have been registered on the same node, with no
// network hop. Grounded on the teacher's ws.Hub register/broadcast loop,
// with WebSocket clients replaced by plain callback subscribers.
type InProcNode struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]InProcSubscriber // wireKey -> id -> subscriber
	closed      bool
}

// NewInProcNode creates an empty in-process fabric node.
func NewInProcNode() *InProcNode {
	return &InProcNode{
		subscribers: make(map[string]map[string]InProcSubscriber),
	}
}

// Subscribe registers a subscriber for (topic, type) and returns an ID that
// can later be passed to Unsubscribe.
func (n *InProcNode) Subscribe(topic, typ string, fn InProcSubscriber) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return "", fmt.Errorf("fabric node is closed")
	}

	key := wireTopic(topic, typ)
	if n.subscribers[key] == nil {
		n.subscribers[key] = make(map[string]InProcSubscriber)
	}
	id := uuid.New().String()
	n.subscribers[key][id] = fn
	return id, nil
}

// Unsubscribe removes a subscriber previously returned by Subscribe.
func (n *InProcNode) Unsubscribe(topic, typ, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscribers[wireTopic(topic, typ)], id)
}

// Advertise creates a Publisher that fans out to every subscriber currently
// registered for (topic, typ).
func (n *InProcNode) Advertise(topic, typ string) (Publisher, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, fmt.Errorf("fabric node is closed")
	}

	key := wireTopic(topic, typ)
	if n.subscribers[key] == nil {
		n.subscribers[key] = make(map[string]InProcSubscriber)
	}
	log.Debugf("advertised %s:%s on in-process fabric", topic, typ)
	return &inProcPublisher{node: n, key: key}, nil
}

// Close marks the node closed and drops every subscriber. Existing
// publishers deliver nothing afterward: PublishRaw returns an error.
func (n *InProcNode) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.subscribers = make(map[string]map[string]InProcSubscriber)
	return nil
}

type inProcPublisher struct {
	node *InProcNode
	key  string
}

func (p *inProcPublisher) PublishRaw(data []byte, typ string) error {
	p.node.mu.RLock()
	subs := p.node.subscribers[p.key]
	handlers := make([]InProcSubscriber, 0, len(subs))
	for _, fn := range subs {
		handlers = append(handlers, fn)
	}
	closed := p.node.closed
	p.node.mu.RUnlock()

	if closed {
		return fmt.Errorf("fabric node is closed")
	}

	for _, fn := range handlers {
		fn(data, typ)
	}
	return nil
}

func (p *inProcPublisher) Close() error {
	return nil
}
