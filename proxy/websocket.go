package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Notification is the wire envelope pushed to websocket observers.
type Notification struct {
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebsocketNotifier delivers notifications as JSON frames over a
// caller-supplied *websocket.Conn. A closed or disconnected connection
// simply yields an error, which the Proxy swallows.
type WebsocketNotifier struct {
	// WriteTimeout bounds each delivery so a stalled peer cannot block the
	// router. Defaults to 5s.
	WriteTimeout time.Duration
}

// NewWebsocketNotifier returns a notifier with default timeouts.
func NewWebsocketNotifier() *WebsocketNotifier {
	return &WebsocketNotifier{WriteTimeout: 5 * time.Second}
}

// Deliver implements Notifier.
func (n *WebsocketNotifier) Deliver(ctx context.Context, conn Connection, topic string, payload any) error {
	ws, ok := conn.(*websocket.Conn)
	if !ok {
		return fmt.Errorf("connection is %T, want *websocket.Conn", conn)
	}
	timeout := n.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wsjson.Write(ctx, ws, Notification{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}
