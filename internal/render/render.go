// Package render transforms notification events into destination-specific
// webhook payloads. Rendering is a pure function of the event: no I/O, no
// side effects, and no failure modes beyond JSON marshaling of plain maps.
//
// Two destinations are supported: an Alertmanager-compatible receiver
// (structured labels/annotations) and an Apprise notify endpoint
// (title/body, with Telegram-flavored markdown formatting of the body).
package render

import (
	"context"
	"encoding/json"

	"notifyrelay/internal/types"
)

// Kind identifies a webhook destination format.
type Kind string

const (
	KindAlertmanager Kind = "alertmanager"
	KindApprise      Kind = "apprise"
)

// KindFromString maps a configured webhook type to a Kind. Anything that is
// not "alertmanager" renders as Apprise, matching the endpoint selection in
// config.WebhookConfig.URL.
func KindFromString(s string) Kind {
	if s == string(KindAlertmanager) {
		return KindAlertmanager
	}
	return KindApprise
}

// Renderer produces the wire payload for one destination kind.
type Renderer interface {
	Kind() Kind
	Render(ctx context.Context, ev types.Event) ([]byte, error)
}

// ForKind returns the Renderer for the given destination kind.
func ForKind(k Kind) Renderer {
	if k == KindAlertmanager {
		return &AlertmanagerRenderer{}
	}
	return &AppriseRenderer{}
}

// Alert is one entry of the Alertmanager v1 alerts payload.
type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
}

// AlertmanagerRenderer emits a single-element alert array. The chosen display
// text is duplicated into labels.humanized_text and annotations.description
// so both grouping and detail views carry it.
type AlertmanagerRenderer struct{}

// Kind returns KindAlertmanager.
func (r *AlertmanagerRenderer) Kind() Kind { return KindAlertmanager }

// Render produces the JSON array accepted by POST /api/v1/alerts.
func (r *AlertmanagerRenderer) Render(_ context.Context, ev types.Event) ([]byte, error) {
	text := ev.DisplayText()
	alerts := []Alert{
		{
			Labels: map[string]string{
				"alertname":      "NotificationAlert",
				"severity":       ev.Level(),
				"humanized_text": text,
			},
			Annotations: map[string]string{
				"description": text,
			},
		},
	}
	return json.Marshal(alerts)
}

// NotifyPayload is the JSON body accepted by the Apprise notify endpoint.
type NotifyPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// AppriseRenderer emits a title/body object. The title signals whether the
// text was AI-humanized upstream; the body is passed through the Telegram
// markdown formatter.
type AppriseRenderer struct{}

// Kind returns KindApprise.
func (r *AppriseRenderer) Kind() Kind { return KindApprise }

// Render produces the JSON object accepted by POST /notify.
func (r *AppriseRenderer) Render(_ context.Context, ev types.Event) ([]byte, error) {
	title := "Notification Received"
	if ev.HumanizedText() != "" {
		title = "AI Analyzed Notification"
	}
	payload := NotifyPayload{
		Title: title,
		Body:  FormatTelegramMarkdown(ev.DisplayText()),
	}
	return json.Marshal(payload)
}
