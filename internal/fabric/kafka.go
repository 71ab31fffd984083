package fabric

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/darkden-lab/logplay/internal/diag"
)

var log = diag.New("fabric")

// KafkaNode advertises publishers backed by Kafka topics, one kafka.Writer
// per (topic, type) pair. Grounded on the teacher's KafkaBroker, which holds
// a shared writer and per-subscription readers behind a single mutex.
type KafkaNode struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

// NewKafkaNode creates a KafkaNode writing to the given broker addresses.
func NewKafkaNode(brokers []string) (*KafkaNode, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker address is required")
	}
	return &KafkaNode{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}, nil
}

// wireTopic returns the Kafka topic name used for a (topic, type) pair. A
// log topic may carry several message types, and Kafka topics are
// single-schema in practice, so the pair is folded into one wire name.
func wireTopic(topic, typ string) string {
	return topic + "\x00" + typ
}

// Advertise creates a Kafka-backed Publisher for (topic, typ).
func (n *KafkaNode) Advertise(topic, typ string) (Publisher, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, fmt.Errorf("fabric node is closed")
	}

	key := wireTopic(topic, typ)
	if w, ok := n.writers[key]; ok {
		return &kafkaPublisher{writer: w, topic: key}, nil
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(n.brokers...),
		Topic:    key,
		Balancer: &kafka.LeastBytes{},
	}
	n.writers[key] = w
	log.Debugf("advertised %s:%s on kafka topic %q", topic, typ, key)
	return &kafkaPublisher{writer: w, topic: key}, nil
}

// Close closes every writer this node created.
func (n *KafkaNode) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	var firstErr error
	for _, w := range n.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type kafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func (p *kafkaPublisher) PublishRaw(data []byte, typ string) error {
	// The writer is already bound to p.topic; kafka-go rejects a message
	// that names a topic as well.
	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Value: data,
	})
}

func (p *kafkaPublisher) Close() error {
	// Individual publishers share the node's writer; the writer is closed
	// once by KafkaNode.Close.
	return nil
}
