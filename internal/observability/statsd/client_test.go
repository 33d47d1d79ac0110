package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUDPSink starts a loopback UDP listener and returns its address plus a
// function that blocks for the next datagram.
func newUDPSink(t *testing.T) (string, func() string) {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if cerr := conn.Close(); cerr != nil {
			t.Logf("warning: failed to close udp listener: %v", cerr)
		}
	})

	recv := func() string {
		buf := make([]byte, 1024)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, rerr := conn.ReadFrom(buf)
		require.NoError(t, rerr)
		return string(buf[:n])
	}
	return conn.LocalAddr().String(), recv
}

func TestNewClient_Disabled(t *testing.T) {
	t.Run("disabled by config", func(t *testing.T) {
		client, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
		require.NoError(t, err)
		assert.False(t, client.Enabled())

		// Writes on a disabled client are silent no-ops.
		client.Count("generation.job.transition", 1, nil)
		require.NoError(t, client.Close())
	})

	t.Run("blank address disables", func(t *testing.T) {
		client, err := NewClient(Config{Enabled: true, Address: "   "})
		require.NoError(t, err)
		assert.False(t, client.Enabled())
	})
}

func TestClient_Count(t *testing.T) {
	addr, recv := newUDPSink(t)

	client, err := NewClient(Config{Enabled: true, Address: addr, Prefix: "ticketgen"})
	require.NoError(t, err)
	defer func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close client: %v", cerr)
		}
	}()
	require.True(t, client.Enabled())

	client.Count("generation.batch.tickets", 5000, map[string]string{"retried": "true"})

	assert.Equal(t, "ticketgen.generation.batch.tickets:5000|c|#retried:true", recv())
}

func TestClient_Gauge(t *testing.T) {
	addr, recv := newUDPSink(t)

	client, err := NewClient(Config{Enabled: true, Address: addr, Prefix: "ticketgen"})
	require.NoError(t, err)
	defer client.Close()

	client.Gauge("generation.batch.size", 2500, nil)

	assert.Equal(t, "ticketgen.generation.batch.size:2500|g", recv())
}

func TestClient_Timing(t *testing.T) {
	addr, recv := newUDPSink(t)

	client, err := NewClient(Config{Enabled: true, Address: addr, Prefix: "ticketgen"})
	require.NoError(t, err)
	defer client.Close()

	client.Timing("generation.job.duration", 1500*time.Millisecond, nil)

	assert.Equal(t, "ticketgen.generation.job.duration:1500|ms", recv())
}

func TestClient_GlobalTags(t *testing.T) {
	addr, recv := newUDPSink(t)

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    addr,
		Prefix:     "ticketgen",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()

	client.Count("generation.dispatch.jobs", 2, map[string]string{"breaker": "closed"})

	// Tags are merged and emitted in sorted key order.
	assert.Equal(t, "ticketgen.generation.dispatch.jobs:2|c|#breaker:closed,env:test", recv())
}

func TestClient_WritesAfterCloseAreNoops(t *testing.T) {
	addr, _ := newUDPSink(t)

	client, err := NewClient(Config{Enabled: true, Address: addr})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	assert.False(t, client.Enabled())
	client.Count("generation.job.transition", 1, nil)
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client

	assert.False(t, client.Enabled())
	client.Count("x", 1, nil)
	client.Gauge("x", 1, nil)
	client.Timing("x", time.Second, nil)
	assert.NoError(t, client.Close())
}

func TestMetricNameNormalization(t *testing.T) {
	client := &Client{prefix: "ticketgen"}

	assert.Equal(t, "ticketgen.generation.job", client.metricName("generation.job"))
	assert.Equal(t, "ticketgen.a_b.c", client.metricName(" a b..c. "))
	assert.Equal(t, "", client.metricName(""))
	assert.Equal(t, "ticketgen", client.metricName("."))
}

func TestSanitizePrefix(t *testing.T) {
	assert.Equal(t, "ticketgen", sanitizePrefix(" .ticketgen. "))
	assert.Equal(t, "", sanitizePrefix("  "))
}
