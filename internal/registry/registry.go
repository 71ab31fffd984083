// Package registry implements the PublisherRegistry (component B): for
// every (topic, type) pair in a Session's resolved selection, it acquires
// and caches a live fabric Publisher, advertising failures are logged and
// skipped rather than aborting the Session.
package registry

import (
	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/diag"
	"github.com/darkden-lab/logplay/internal/fabric"
)

var log = diag.New("registry")

// Registry owns one fabric.Node and the publishers advertised on it. A
// publisher is created once per (topic, type) pair and never re-created.
type Registry struct {
	node       fabric.Node
	publishers map[string]map[string]fabric.Publisher
}

// New creates a Registry bound to node. The Registry takes ownership of
// node: Close tears down publishers before closing the node, matching the
// destruction order mandated by spec.md §4.B.
func New(node fabric.Node) *Registry {
	return &Registry{
		node:       node,
		publishers: make(map[string]map[string]fabric.Publisher),
	}
}

// EnsureTopic advertises a publisher for every type cat records under
// topic. Advertisement failures are logged and that (topic, type) pair is
// simply absent from the registry afterward.
func (r *Registry) EnsureTopic(cat catalog.Catalog, topic string) {
	for _, typ := range cat.TypesOf(topic) {
		r.EnsureType(topic, typ)
	}
}

// EnsureType advertises a publisher for (topic, typ) if one does not
// already exist.
func (r *Registry) EnsureType(topic, typ string) {
	if _, ok := r.publishers[topic]; !ok {
		r.publishers[topic] = make(map[string]fabric.Publisher)
	}
	if _, ok := r.publishers[topic][typ]; ok {
		return
	}

	pub, err := r.node.Advertise(topic, typ)
	if err != nil {
		log.Warnf("failed to advertise %s:%s, dropping for this session: %v", topic, typ, err)
		return
	}

	r.publishers[topic][typ] = pub
	log.Debugf("created publisher for %s:%s", topic, typ)
}

// Lookup returns the publisher for (topic, typ), or nil if advertisement
// never succeeded for that pair.
func (r *Registry) Lookup(topic, typ string) fabric.Publisher {
	types, ok := r.publishers[topic]
	if !ok {
		return nil
	}
	return types[typ]
}

// Close tears down every publisher this registry created, then the fabric
// node itself. Publishers must be destroyed before the node per spec.md
// §4.B.
func (r *Registry) Close() error {
	for _, types := range r.publishers {
		for _, pub := range types {
			_ = pub.Close()
		}
	}
	r.publishers = nil
	return r.node.Close()
}
