// Package config provides configuration parsing and validation for the
// ingestion gateway.
package config

import (
	"fmt"
)

// Config holds all configuration parameters for the ingestion gateway.
type Config struct {
	KafkaBrokers string
	EventsTopic  string
	PostgresDSN  string
	HTTPAddr     string
	RedisAddr    string
}

// Validate checks that all required configuration fields are set.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.EventsTopic == "" {
		return fmt.Errorf("events-topic cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http-addr cannot be empty")
	}
	return nil
}
