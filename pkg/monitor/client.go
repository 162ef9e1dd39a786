package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// Client subscribes to a monitor server's state feed.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the websocket state feed at url
// (ws://host:port/ws/state).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("monitor: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Next blocks for the next snapshot from the feed.
func (c *Client) Next() (Snapshot, error) {
	var snap Snapshot
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return snap, fmt.Errorf("monitor: read: %w", err)
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return snap, fmt.Errorf("monitor: decode snapshot: %w", err)
	}
	return snap, nil
}

// Close closes the subscription.
func (c *Client) Close() error {
	return c.conn.Close()
}
