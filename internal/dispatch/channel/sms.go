package channel

import (
	"context"
	"log/slog"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// SMSChannel simulates SMS delivery by logging the message. A real gateway
// integration would slot in behind the same interface.
type SMSChannel struct{}

// NewSMSChannel creates the SMS channel.
func NewSMSChannel() *SMSChannel {
	return &SMSChannel{}
}

// Name returns the channel name.
func (c *SMSChannel) Name() string {
	return "sms"
}

// Send logs the SMS and reports success.
func (c *SMSChannel) Send(_ context.Context, alert *events.AlertRaised, recipient string) error {
	slog.Info("[SIMULATED SMS]",
		"to", recipient,
		"alert_id", alert.AlertID,
		"alert_type", alert.AlertType,
		"sensor_id", alert.SensorID,
		"value", alert.Value,
	)
	return nil
}
