package provider

import (
	"context"
	"log/slog"
)

// SimulatedProvider logs the email instead of sending it. Always
// configured; used as the last-resort fallback and in local development.
type SimulatedProvider struct{}

// NewSimulatedProvider creates the simulated email backend.
func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{}
}

// Name returns the provider name.
func (p *SimulatedProvider) Name() string {
	return "simulated"
}

// IsConfigured always returns true.
func (p *SimulatedProvider) IsConfigured() bool {
	return true
}

// Send logs the email and reports success.
func (p *SimulatedProvider) Send(_ context.Context, req *EmailRequest) error {
	slog.Info("[SIMULATED EMAIL]",
		"to", req.To,
		"subject", req.Subject,
		"body", req.Body,
	)
	return nil
}
