// Package webhook implements the outbound delivery channel for rendered
// notification payloads. A delivery is a single HTTP POST; it either lands
// with a 200 or it is classified as a failure. Retry is not this package's
// concern; the queue router re-enqueues failed events for a broker-driven
// delayed retry.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"notifyrelay/internal/config"
	"notifyrelay/internal/types"
)

// maxResponseBodyRead limits how much of a response body is read for error
// logging.
const maxResponseBodyRead = 4096

// Channel delivers rendered payloads to the configured webhook endpoint.
// All outbound calls go through a circuit breaker so a dead endpoint fails
// fast instead of burning the full timeout on every queued message.
type Channel struct {
	url         string
	webhookType string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	logger      types.Logger
}

// NewChannel creates a Channel from the webhook configuration. The HTTP
// client carries an explicit timeout so a hung endpoint cannot stall the
// consume loop indefinitely.
func NewChannel(cfg config.WebhookConfig, logger types.Logger) *Channel {
	return NewChannelWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewChannelWithClient creates a Channel with a caller-supplied HTTP client.
// This constructor exists for testing.
func NewChannelWithClient(cfg config.WebhookConfig, client *http.Client, logger types.Logger) *Channel {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "webhook-delivery",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Channel{
		url:         cfg.URL(),
		webhookType: cfg.Type,
		client:      client,
		breaker:     cb,
		logger:      logger.With("component", "webhook"),
	}
}

// Deliver POSTs the payload to the configured endpoint and classifies the
// outcome. Success means exactly HTTP 200; any other status, transport
// error, or open breaker is a failure. Deliver never returns an error or
// panics past its boundary: the result is always a classification.
func (c *Channel) Deliver(ctx context.Context, payload []byte) *types.DeliveryResult {
	c.logger.Info("sending payload to webhook",
		"destination", c.url,
		"webhook_type", c.webhookType,
		"payload", string(payload),
	)

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		return c.client.Do(req)
	})
	if err != nil {
		c.logger.Error("webhook delivery failed",
			"destination", c.url,
			"webhook_type", c.webhookType,
			"error", err.Error(),
		)
		return &types.DeliveryResult{
			Delivered: false,
			Reason:    fmt.Sprintf("transport error: %v", err),
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("webhook returned unexpected status",
			"destination", c.url,
			"webhook_type", c.webhookType,
			"status", resp.StatusCode,
			"body", string(body),
		)
		return &types.DeliveryResult{
			Delivered:  false,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	c.logger.Info("webhook delivery succeeded",
		"destination", c.url,
		"webhook_type", c.webhookType,
		"status", resp.StatusCode,
	)
	return &types.DeliveryResult{Delivered: true, StatusCode: resp.StatusCode}
}
