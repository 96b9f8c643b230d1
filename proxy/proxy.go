// Package proxy is the sink that turns internal workflow events into
// external notifications. It decouples the graph from transport concerns:
// the router hands events marked for external delivery to the Proxy, which
// forwards them to a caller-supplied Notifier. Delivery is strictly
// best-effort: failures are logged and swallowed, never surfaced to the
// owning workflow instance.
package proxy

import (
	"context"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
)

// Connection is the opaque observer reference supplied at submission time
// (e.g. a websocket connection). The proxy never inspects it; a
// disconnected connection must be tolerated by the Notifier.
type Connection any

// Notifier delivers a notification to an external observer. Implementations
// must not block materially; long deliveries should time out via ctx.
type Notifier interface {
	Deliver(ctx context.Context, conn Connection, topic string, payload any) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, conn Connection, topic string, payload any) error

// Deliver implements Notifier.
func (f NotifierFunc) Deliver(ctx context.Context, conn Connection, topic string, payload any) error {
	return f(ctx, conn, topic, payload)
}

// Options configure a Proxy.
type Options struct {
	// Logger receives delivery diagnostics.
	Logger logging.Logger
	// OnDeliveryError, when set, observes swallowed delivery failures
	// (used for metrics).
	OnDeliveryError func(topic string)
}

// Proxy forwards externally visible events to a Notifier.
type Proxy struct {
	notifier Notifier
	opts     Options
}

// New constructs a Proxy around the given notifier.
func New(notifier Notifier, optFns ...func(o *Options)) *Proxy {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Proxy{notifier: notifier, opts: opts}
}

// Forward delivers the payload under the given topic. Failures are converted
// to a DeliveryError, logged at warning level and swallowed; Forward never
// returns an error and never faults the calling workflow instance.
func (p *Proxy) Forward(ctx context.Context, conn Connection, topic string, payload any) {
	if p == nil || p.notifier == nil {
		return
	}
	if err := p.notifier.Deliver(ctx, conn, topic, payload); err != nil {
		logging.Notification(p.opts.Logger, topic, &core.DeliveryError{Topic: topic, Err: err})
		if p.opts.OnDeliveryError != nil {
			p.opts.OnDeliveryError(topic)
		}
		return
	}
	logging.Notification(p.opts.Logger, topic, nil)
}
