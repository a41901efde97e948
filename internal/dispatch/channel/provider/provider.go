// Package provider defines the email backend interface and a small
// registry with primary/fallback selection. The simulated backend is
// always available, so email delivery degrades to simulation when no real
// provider is configured.
package provider

import (
	"context"
	"fmt"
	"log/slog"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Provider is the interface all email backends implement.
type Provider interface {
	// Name returns the provider name (e.g. "resend", "ses", "simulated").
	Name() string

	// Send sends an email using this provider.
	Send(ctx context.Context, req *EmailRequest) error

	// IsConfigured returns true if the provider is properly configured.
	IsConfigured() bool
}

// Registry selects among registered providers.
type Registry struct {
	order   []Provider
	primary string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider. Registration order is the fallback order.
func (r *Registry) Register(p Provider) {
	r.order = append(r.order, p)
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary names the preferred provider.
func (r *Registry) SetPrimary(name string) {
	r.primary = name
}

// Pick returns the primary provider when configured, otherwise the first
// configured provider in registration order.
func (r *Registry) Pick() (Provider, error) {
	if r.primary != "" {
		for _, p := range r.order {
			if p.Name() == r.primary && p.IsConfigured() {
				return p, nil
			}
		}
		slog.Warn("Primary email provider not configured, falling back", "primary", r.primary)
	}
	for _, p := range r.order {
		if p.IsConfigured() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no configured email provider available")
}
