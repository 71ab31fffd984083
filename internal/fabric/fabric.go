// Package fabric defines the live messaging fabric contract (§6.2) that the
// playback engine publishes onto, plus two concrete backings: an in-process
// fabric for tests and single-node use, and a Kafka-backed fabric for
// distributed deployments.
package fabric

// Publisher is a live, advertised emitter for one (topic, type) pair.
type Publisher interface {
	// PublishRaw sends data, tagged with typ, to whatever this publisher was
	// advertised for.
	PublishRaw(data []byte, typ string) error

	// Close releases the publisher. It must be called before the owning
	// Node is closed.
	Close() error
}

// Node advertises publishers on the fabric. A Node's destruction must
// release every advertisement it granted.
type Node interface {
	// Advertise creates a Publisher for (topic, typ). Implementations may
	// return an error if advertisement fails; the caller is expected to
	// skip that (topic, type) pair rather than abort the whole playback.
	Advertise(topic, typ string) (Publisher, error)

	// Close releases the node and every publisher it created.
	Close() error
}

// Config describes settings for constructing a Node. No constructor in this
// package takes a Config: NewKafkaNode receives its broker list directly,
// and which Node a Session gets is decided by the Factory's NodeFactory.
type Config struct {
	// KafkaBrokers lists Kafka broker addresses.
	KafkaBrokers []string
}
