// Package relay owns the consume loop of the notification relay: it drives
// each message through decode -> render -> deliver -> route, then acknowledges
// the original message unconditionally.
//
// The acknowledgment discipline is the core guarantee: once a message's fate
// is decided (forwarded, re-queued for retry, or dropped as poison), the
// original is acked exactly once. A failed delivery therefore never blocks
// the source queue; a new message lands on the reprocess queue instead and
// the broker redelivers it to the source queue after the TTL expires.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"notifyrelay/internal/queue"
	"notifyrelay/internal/render"
	"notifyrelay/internal/types"
)

// DeliveryChannel is the outbound side of the pipeline, implemented by
// webhook.Channel.
type DeliveryChannel interface {
	Deliver(ctx context.Context, payload []byte) *types.DeliveryResult
}

// Router routes an event's original body based on the delivery outcome,
// implemented by queue.Router.
type Router interface {
	Route(ctx context.Context, body []byte, result *types.DeliveryResult)
}

// Worker is the pipeline controller. It processes one message at a time:
// the gateway consumes with a prefetch of one and the loop runs in a single
// goroutine, so throughput is bounded by webhook round-trip latency. That is
// deliberate: this is a low-volume notification sideband.
type Worker struct {
	gateway  queue.Gateway
	topology queue.Topology
	renderer render.Renderer
	channel  DeliveryChannel
	router   Router
	logger   types.Logger

	// onReady, when set, is called once consumption has started. The ops
	// readiness probe hangs off this.
	onReady func()
}

// NewWorker assembles the pipeline controller.
func NewWorker(
	gateway queue.Gateway,
	topology queue.Topology,
	renderer render.Renderer,
	channel DeliveryChannel,
	router Router,
	logger types.Logger,
) *Worker {
	return &Worker{
		gateway:  gateway,
		topology: topology,
		renderer: renderer,
		channel:  channel,
		router:   router,
		logger:   logger.With("component", "relay"),
	}
}

// OnReady registers a callback invoked once the worker is consuming.
func (w *Worker) OnReady(fn func()) { w.onReady = fn }

// Run declares the queue topology, starts consuming from the source queue,
// and processes deliveries until ctx is done or the broker closes the
// subscription. Declaration errors and consume setup errors are returned;
// per-message errors never are.
func (w *Worker) Run(ctx context.Context) error {
	for _, d := range w.topology.All() {
		if err := w.gateway.Declare(ctx, d); err != nil {
			return fmt.Errorf("relay: declare queue %s: %w", d.Name, err)
		}
		w.logger.Info("queue checked or created", "queue", d.Name)
	}

	deliveries, err := w.gateway.Consume(ctx, w.topology.Source.Name)
	if err != nil {
		return fmt.Errorf("relay: consume %s: %w", w.topology.Source.Name, err)
	}

	if w.onReady != nil {
		w.onReady()
	}
	w.logger.Info("waiting for messages", "queue", w.topology.Source.Name)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("relay worker stopping", "reason", ctx.Err().Error())
			return nil
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed by broker")
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

// handle processes a single delivery. Whatever happens (malformed body,
// renderer error, panic in the delivery channel) the message is
// acknowledged on the way out so a poison message can never wedge the queue.
func (w *Worker) handle(ctx context.Context, d queue.Delivery) {
	defer w.ack(d)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing message",
				"panic", fmt.Sprint(r),
				"body", string(d.Body),
			)
		}
	}()

	var ev types.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		// Poison message: dropping it is the only way to stop an infinite
		// redelivery loop, since retrying cannot make the body parseable.
		w.logger.Error("dropping malformed message body",
			"error", err.Error(),
			"body", string(d.Body),
		)
		return
	}

	w.logger.Info("message received",
		"queue", w.topology.Source.Name,
		"text", ev.DisplayText(),
		"level", ev.Level(),
	)

	payload, err := w.renderer.Render(ctx, ev)
	if err != nil {
		w.logger.Error("failed to render payload",
			"error", err.Error(),
			"body", string(d.Body),
		)
		return
	}

	result := w.channel.Deliver(ctx, payload)
	w.router.Route(ctx, d.Body, result)
}

// ack acknowledges the original message, logging but not propagating
// failures; an ack error usually means the connection died, and the broker
// will redeliver.
func (w *Worker) ack(d queue.Delivery) {
	if err := d.Ack(); err != nil {
		w.logger.Error("failed to acknowledge message", "error", err.Error())
	}
}
