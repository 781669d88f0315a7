// Package config defines the configuration surface for the notification
// relay worker. Configuration is loaded once at process startup and is
// immutable thereafter, following 12-Factor principles: values come from the
// OS environment, optionally seeded by a .env file for local development.
//
// Any missing required value or invalid format fails the process immediately
// on startup (fail fast).
package config

import (
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"notifyrelay/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to keep broker credentials out of logs and config dumps.
type SecretString = types.SecretString

// Webhook destination kinds recognized in WEBHOOK_TYPE. Any other value is
// treated as the Apprise kind.
const (
	WebhookAlertmanager = "alertmanager"
	WebhookApprise      = "apprise"
)

// Config is the top-level configuration for the relay worker.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RabbitMQ RabbitMQConfig
	Webhook  WebhookConfig
	Ops      OpsConfig
}

// RabbitMQConfig holds broker connection parameters and the retry-queue TTL.
type RabbitMQConfig struct {
	Host  string       `envconfig:"RABBITMQ_HOST" validate:"required"`
	Port  int          `envconfig:"RABBITMQ_PORT" default:"5672" validate:"min=1,max=65535"`
	VHost string       `envconfig:"RABBITMQ_VHOST" default:"/"`
	User  string       `envconfig:"RABBITMQ_USER"`
	Pass  SecretString `envconfig:"RABBITMQ_PASS"`

	// TTLMillis is the x-message-ttl applied to the reprocess queue. When a
	// message expires there, the broker dead-letters it back to the source
	// queue, producing a fixed-delay retry cycle.
	TTLMillis int64 `envconfig:"RABBITMQ_TTL_DLX" default:"60000" validate:"min=1"`

	// Queue name prefixes. The defaults preserve the queue names the rest of
	// the notification pipeline already uses.
	SourceNamespace  string `envconfig:"QUEUE_NAMESPACE" default:"02_syrin_notification_message"`
	ForwardNamespace string `envconfig:"FORWARD_QUEUE_NAMESPACE" default:"04_syrin_notification_message"`
}

// URL builds the AMQP connection URI from the individual settings.
func (c RabbitMQConfig) URL() string {
	u := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Pass.Unmask(),
		Vhost:    c.VHost,
	}
	return u.String()
}

// WebhookConfig holds settings for the outbound notification webhook.
type WebhookConfig struct {
	// Type selects the payload format and endpoint path. "alertmanager"
	// targets an Alertmanager-compatible receiver; anything else falls back
	// to the Apprise notify endpoint.
	Type    string       `envconfig:"WEBHOOK_TYPE" default:"apprise"`
	BaseURL string       `envconfig:"WEBHOOK_BASE_URL" validate:"required"`
	Port    int          `envconfig:"WEBHOOK_PORT" default:"80" validate:"min=1,max=65535"`
	Timeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

// URL returns the full endpoint URL for the configured webhook type.
func (c WebhookConfig) URL() string {
	if c.Type == WebhookAlertmanager {
		return fmt.Sprintf("%s:%d/api/v1/alerts", c.BaseURL, c.Port)
	}
	return fmt.Sprintf("%s:%d/notify", c.BaseURL, c.Port)
}

// OpsConfig holds settings for the operational HTTP surface (probes).
type OpsConfig struct {
	Port int `envconfig:"OPS_PORT" default:"8080" validate:"min=1,max=65535"`
}

// normalize canonicalizes values that are matched case-insensitively.
func (c *Config) normalize() {
	c.Webhook.Type = strings.ToLower(strings.TrimSpace(c.Webhook.Type))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}
