package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/codemesh/proxy"
)

// Delivery is one captured external notification.
type Delivery struct {
	Conn    proxy.Connection
	Topic   string
	Payload any
}

// RecordingNotifier captures notifications in delivery order. It is safe for
// concurrent use; Fail, when set, is returned for every matching topic to
// exercise delivery error paths.
type RecordingNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery

	// Fail maps topics to the error Deliver should return for them.
	Fail map[string]error
}

// NewRecordingNotifier creates an empty recorder.
func NewRecordingNotifier() *RecordingNotifier { return &RecordingNotifier{} }

// Deliver implements proxy.Notifier.
func (n *RecordingNotifier) Deliver(_ context.Context, conn proxy.Connection, topic string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.deliveries = append(n.deliveries, Delivery{Conn: conn, Topic: topic, Payload: payload})
	if err, ok := n.Fail[topic]; ok {
		return err
	}
	return nil
}

// Deliveries returns a copy of everything captured so far.
func (n *RecordingNotifier) Deliveries() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Delivery, len(n.deliveries))
	copy(out, n.deliveries)
	return out
}

// Topics returns just the captured topic names, in order.
func (n *RecordingNotifier) Topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.deliveries))
	for i, d := range n.deliveries {
		out[i] = d.Topic
	}
	return out
}
