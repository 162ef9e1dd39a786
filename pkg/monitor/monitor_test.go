package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMintLab/libfranka/pkg/robot"
)

// fakeReader hands out states with an increasing sequence number.
type fakeReader struct {
	seq atomic.Uint32
}

func (f *fakeReader) ReadOnce(ctx context.Context) (robot.State, error) {
	seq := f.seq.Add(1)
	return robot.State{
		Seq:  seq,
		Time: uint64(seq) * 1000,
		Q:    [7]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
	}, nil
}

func startServer(t *testing.T) (string, *Server) {
	t.Helper()
	srv := NewServer(&fakeReader{}, WithPollInterval(10*time.Millisecond))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Shutdown() })

	return ln.Addr().String(), srv
}

func TestStateFeed(t *testing.T) {
	addr, _ := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var c *Client
	var err error
	// The listener is up before Serve returns control, but give the accept
	// loop a moment on slow machines.
	for i := 0; i < 50; i++ {
		c, err = Dial(ctx, fmt.Sprintf("ws://%s/ws/state", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer c.Close()

	first, err := c.Next()
	require.NoError(t, err)
	second, err := c.Next()
	require.NoError(t, err)

	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, 0.1, first.Q[0])
	assert.False(t, first.ReceivedAt.IsZero())
}

func TestStateEndpoint(t *testing.T) {
	addr, _ := startServer(t)

	var snap Snapshot
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/api/state", addr))
		if err != nil || resp.StatusCode != http.StatusOK {
			if resp != nil {
				resp.Body.Close()
			}
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&snap) == nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.NotZero(t, snap.Seq)
	assert.Equal(t, 0.2, snap.Q[1])
}

func TestHealthEndpoint(t *testing.T) {
	addr, _ := startServer(t)

	var health struct {
		Subscribers int  `json:"subscribers"`
		HasState    bool `json:"has_state"`
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/api/health", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return false
		}
		return health.HasState
	}, 5*time.Second, 20*time.Millisecond)

	assert.Zero(t, health.Subscribers)
}
