package channel

import (
	"context"
	"log/slog"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// PushChannel simulates a mobile push notification by logging it.
type PushChannel struct{}

// NewPushChannel creates the push channel.
func NewPushChannel() *PushChannel {
	return &PushChannel{}
}

// Name returns the channel name.
func (c *PushChannel) Name() string {
	return "push"
}

// Send logs the push notification and reports success.
func (c *PushChannel) Send(_ context.Context, alert *events.AlertRaised, recipient string) error {
	slog.Info("[SIMULATED PUSH]",
		"device", recipient,
		"alert_id", alert.AlertID,
		"alert_type", alert.AlertType,
		"sensor_id", alert.SensorID,
	)
	return nil
}
