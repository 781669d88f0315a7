package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyrelay/internal/types"
)

// nopLogger satisfies types.Logger without producing output.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (nopLogger) With(...any) types.Logger { return nopLogger{} }

// fakeGateway records Declare and Publish calls.
type fakeGateway struct {
	declared   []Descriptor
	published  map[string][][]byte
	declareErr error
	publishErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{published: map[string][][]byte{}}
}

func (f *fakeGateway) Declare(_ context.Context, d Descriptor) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, d)
	return nil
}

func (f *fakeGateway) Publish(_ context.Context, queue string, body []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[queue] = append(f.published[queue], body)
	return nil
}

func (f *fakeGateway) Consume(context.Context, string) (<-chan Delivery, error) {
	return nil, errors.New("not implemented")
}

func testTopology() Topology {
	return NewTopology("02_test", "04_test", 60000)
}

func TestRouter_Route_SuccessGoesToForward(t *testing.T) {
	gw := newFakeGateway()
	topo := testTopology()
	r := NewRouter(gw, topo, nopLogger{})

	body := []byte(`{"text":"hello","extra":"field"}`)
	r.Route(context.Background(), body, &types.DeliveryResult{Delivered: true, StatusCode: 200})

	require.Len(t, gw.published[topo.Forward.Name], 1)
	assert.Equal(t, body, gw.published[topo.Forward.Name][0])
	assert.Empty(t, gw.published[topo.Reprocess.Name])

	// Forward queue is redeclared without any TTL policy.
	require.Len(t, gw.declared, 1)
	assert.Equal(t, topo.Forward, gw.declared[0])
	assert.Zero(t, gw.declared[0].TTLMillis)
}

func TestRouter_Route_FailureGoesToReprocess(t *testing.T) {
	gw := newFakeGateway()
	topo := testTopology()
	r := NewRouter(gw, topo, nopLogger{})

	body := []byte(`{"text":"hello","attempt":3}`)
	r.Route(context.Background(), body, &types.DeliveryResult{Delivered: false, StatusCode: 502, Reason: "unexpected status 502"})

	require.Len(t, gw.published[topo.Reprocess.Name], 1)
	assert.Equal(t, body, gw.published[topo.Reprocess.Name][0])
	assert.Empty(t, gw.published[topo.Forward.Name])

	// The reprocess queue is redeclared with its TTL/dead-letter policy so
	// the broker-driven delayed retry stays in force.
	require.Len(t, gw.declared, 1)
	assert.Equal(t, int64(60000), gw.declared[0].TTLMillis)
	assert.Equal(t, topo.Source.Name, gw.declared[0].DeadLetterTo)
}

func TestRouter_Route_BodyRepublishedUnmodified(t *testing.T) {
	gw := newFakeGateway()
	topo := testTopology()
	r := NewRouter(gw, topo, nopLogger{})

	// Unknown fields and formatting must survive byte-for-byte.
	body := []byte(`{"text":"t",  "custom": {"deep": [1,2,3]}}`)
	r.Route(context.Background(), body, &types.DeliveryResult{Delivered: false})

	require.Len(t, gw.published[topo.Reprocess.Name], 1)
	assert.Equal(t, body, gw.published[topo.Reprocess.Name][0])
}

func TestRouter_Route_PublishErrorSwallowed(t *testing.T) {
	gw := newFakeGateway()
	gw.publishErr = errors.New("broker gone")
	r := NewRouter(gw, testTopology(), nopLogger{})

	assert.NotPanics(t, func() {
		r.Route(context.Background(), []byte(`{}`), &types.DeliveryResult{Delivered: true})
	})
}

func TestRouter_Route_DeclareErrorSwallowed(t *testing.T) {
	gw := newFakeGateway()
	gw.declareErr = errors.New("precondition failed")
	r := NewRouter(gw, testTopology(), nopLogger{})

	assert.NotPanics(t, func() {
		r.Route(context.Background(), []byte(`{}`), &types.DeliveryResult{Delivered: false})
	})
	assert.Empty(t, gw.published)
}
