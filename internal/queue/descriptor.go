// Package queue provides the broker gateway for the relay pipeline: queue
// declaration with policy, durable publishing, manual-ack consumption, and
// the post-delivery outcome router.
package queue

// Queue name suffixes appended to the configured namespaces.
const (
	sourceSuffix    = "_process_humanized"
	reprocessSuffix = "_reprocess_humanized"
	forwardSuffix   = "_process_send"
)

// Descriptor is the static definition of one queue. A non-zero TTLMillis
// together with DeadLetterTo declares a delay queue: messages expiring there
// are dead-lettered to the DeadLetterTo queue via the default exchange.
type Descriptor struct {
	Name         string
	Durable      bool
	TTLMillis    int64
	DeadLetterTo string
}

// Topology is the fixed three-queue layout the pipeline operates on.
//
//	Source    - consumed with manual ack; fresh and retried events arrive here
//	Reprocess - TTL-bearing; expired messages dead-letter back to Source
//	Forward   - successfully delivered events are handed off here
type Topology struct {
	Source    Descriptor
	Reprocess Descriptor
	Forward   Descriptor
}

// NewTopology builds the queue topology from the configured namespaces and
// the reprocess TTL.
func NewTopology(sourceNS, forwardNS string, ttlMillis int64) Topology {
	source := sourceNS + sourceSuffix
	return Topology{
		Source: Descriptor{
			Name:    source,
			Durable: true,
		},
		Reprocess: Descriptor{
			Name:         sourceNS + reprocessSuffix,
			Durable:      true,
			TTLMillis:    ttlMillis,
			DeadLetterTo: source,
		},
		Forward: Descriptor{
			Name:    forwardNS + forwardSuffix,
			Durable: true,
		},
	}
}

// All returns the descriptors in declaration order.
func (t Topology) All() []Descriptor {
	return []Descriptor{t.Source, t.Reprocess, t.Forward}
}
