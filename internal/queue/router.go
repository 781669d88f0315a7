package queue

import (
	"context"

	"notifyrelay/internal/types"
)

// Router decides which queue receives an event after a delivery attempt.
// Success forwards the event to the next pipeline stage; failure parks it on
// the TTL-bearing reprocess queue, from which the broker dead-letters it
// back to the source queue after the delay. The original body bytes are
// republished unmodified so producer-supplied fields survive retry.
type Router struct {
	gateway  Gateway
	topology Topology
	logger   types.Logger
}

// NewRouter creates a Router over the given gateway and topology.
func NewRouter(gateway Gateway, topology Topology, logger types.Logger) *Router {
	return &Router{
		gateway:  gateway,
		topology: topology,
		logger:   logger.With("component", "router"),
	}
}

// Route publishes body to the forward or reprocess queue based on the
// delivery result. The target queue is redeclared first, which is a no-op
// when it already exists with the same policy. Publish failures are logged
// and swallowed: the caller acknowledges the original message either way,
// and a wedged queue is worse than a lost event here.
func (r *Router) Route(ctx context.Context, body []byte, result *types.DeliveryResult) {
	target := r.topology.Reprocess
	if result.Delivered {
		target = r.topology.Forward
	}

	if err := r.gateway.Declare(ctx, target); err != nil {
		r.logger.Error("failed to declare routing target",
			"queue", target.Name,
			"error", err.Error(),
		)
		return
	}

	if err := r.gateway.Publish(ctx, target.Name, body); err != nil {
		r.logger.Error("failed to publish routed message",
			"queue", target.Name,
			"error", err.Error(),
		)
		return
	}

	if result.Delivered {
		r.logger.Info("message routed to forward queue", "queue", target.Name)
	} else {
		r.logger.Info("message routed to reprocess queue",
			"queue", target.Name,
			"reason", result.Reason,
			"retry_delay_ms", target.TTLMillis,
		)
	}
}
