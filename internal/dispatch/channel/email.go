package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/channel/provider"
	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/retry"
	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
	"github.com/OppaDev/monitoreo-ambiental/pkg/shared"
)

// EmailChannel delivers alerts as email through the provider registry.
type EmailChannel struct {
	providers *provider.Registry
	from      string
	retryCfg  retry.Config
}

// NewEmailChannel creates the email channel. The sender address is read
// from EMAIL_FROM and defaults to a local development address.
func NewEmailChannel(providers *provider.Registry) *EmailChannel {
	return &EmailChannel{
		providers: providers,
		from:      shared.GetEnvOrDefault("EMAIL_FROM", "alerts@monitoreo.local"),
		retryCfg:  retry.DefaultConfig(),
	}
}

// Name returns the channel name.
func (c *EmailChannel) Name() string {
	return "email"
}

// Send formats the alert as an email and sends it through the selected
// provider, retrying transient failures.
func (c *EmailChannel) Send(ctx context.Context, alert *events.AlertRaised, recipient string) error {
	p, err := c.providers.Pick()
	if err != nil {
		return fmt.Errorf("selecting email provider: %w", err)
	}

	req := &provider.EmailRequest{
		From:    c.from,
		To:      []string{recipient},
		Subject: fmt.Sprintf("[%s] %s", alert.AlertType, alert.SensorID),
		Body: fmt.Sprintf("Alert %s: sensor %s reported value %.2f (threshold %.2f) at %s",
			alert.AlertID, alert.SensorID, alert.Value, alert.Threshold,
			alert.Timestamp.Format("2006-01-02 15:04:05")),
	}

	err = retry.WithRetry(ctx, c.retryCfg, fmt.Sprintf("email via %s", p.Name()), func() error {
		return p.Send(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("sending email via %s: %w", p.Name(), err)
	}

	slog.Debug("Email dispatched", "alert_id", alert.AlertID, "to", recipient, "provider", p.Name())
	return nil
}
