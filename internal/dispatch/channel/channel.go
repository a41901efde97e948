// Package channel defines the notification channel boundary. A channel
// takes an alert and a recipient and either delivers or returns an error;
// errors never propagate past the dispatcher, which converts every attempt
// into a notification log record.
package channel

import (
	"context"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// Channel is one delivery medium (email, sms, push).
type Channel interface {
	// Name returns the channel name used in notification records.
	Name() string

	// Send delivers the alert to the recipient. A non-nil error means the
	// attempt failed; Send must not panic.
	Send(ctx context.Context, alert *events.AlertRaised, recipient string) error
}

// Registry holds the configured channels in registration order, so
// fan-out order is deterministic.
type Registry struct {
	channels []Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a channel. Registering the same name twice keeps both;
// callers are expected to register each channel once.
func (r *Registry) Register(c Channel) {
	r.channels = append(r.channels, c)
}

// All returns the channels in registration order.
func (r *Registry) All() []Channel {
	return r.channels
}

// Names returns the registered channel names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.channels))
	for _, c := range r.channels {
		names = append(names, c.Name())
	}
	return names
}
