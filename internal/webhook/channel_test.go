package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyrelay/internal/config"
	"notifyrelay/internal/types"
)

// nopLogger satisfies types.Logger without producing output.
type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

func (nopLogger) With(...any) types.Logger { return nopLogger{} }

// webhookConfigFor builds a WebhookConfig pointing at a test server URL.
func webhookConfigFor(t *testing.T, serverURL, webhookType string) config.WebhookConfig {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return config.WebhookConfig{
		Type:    webhookType,
		BaseURL: u.Scheme + "://" + u.Hostname(),
		Port:    port,
		Timeout: 2 * time.Second,
	}
}

func TestChannel_Deliver_Success(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ch := NewChannel(webhookConfigFor(t, ts.URL, config.WebhookApprise), nopLogger{})
	result := ch.Deliver(context.Background(), []byte(`{"title":"t","body":"b"}`))

	require.NotNil(t, result)
	assert.True(t, result.Delivered)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "/notify", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"title":"t","body":"b"}`, string(gotBody))
}

func TestChannel_Deliver_AlertmanagerPath(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ch := NewChannel(webhookConfigFor(t, ts.URL, config.WebhookAlertmanager), nopLogger{})
	result := ch.Deliver(context.Background(), []byte(`[]`))

	assert.True(t, result.Delivered)
	assert.Equal(t, "/api/v1/alerts", gotPath)
}

func TestChannel_Deliver_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"not found", http.StatusNotFound},
		{"accepted is not success", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			ch := NewChannel(webhookConfigFor(t, ts.URL, config.WebhookApprise), nopLogger{})
			result := ch.Deliver(context.Background(), []byte(`{}`))

			assert.False(t, result.Delivered)
			assert.Equal(t, tt.status, result.StatusCode)
			assert.Contains(t, result.Reason, "unexpected status")
		})
	}
}

func TestChannel_Deliver_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := webhookConfigFor(t, ts.URL, config.WebhookApprise)
	ts.Close() // connection refused from here on

	ch := NewChannel(cfg, nopLogger{})
	result := ch.Deliver(context.Background(), []byte(`{}`))

	require.NotNil(t, result)
	assert.False(t, result.Delivered)
	assert.Contains(t, result.Reason, "transport error")
}

func TestChannel_Deliver_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := webhookConfigFor(t, ts.URL, config.WebhookApprise)
	ts.Close()

	ch := NewChannel(cfg, nopLogger{})
	for i := 0; i < 10; i++ {
		result := ch.Deliver(context.Background(), []byte(`{}`))
		assert.False(t, result.Delivered, "attempt %d should fail", i)
		assert.NotEmpty(t, result.Reason)
	}
}
