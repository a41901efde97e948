// Package config provides configuration parsing and validation for the
// analysis engine.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the analysis engine.
type Config struct {
	KafkaBrokers   string
	EventsTopic    string
	QueueName      string
	PostgresDSN    string
	HTTPAddr       string
	RedisAddr      string
	DigestInterval time.Duration
	SweepInterval  time.Duration
}

// Validate checks that all required configuration fields are set and have
// valid values. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.EventsTopic == "" {
		return fmt.Errorf("events-topic cannot be empty")
	}
	if c.QueueName == "" {
		return fmt.Errorf("queue-name cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.DigestInterval <= 0 {
		return fmt.Errorf("digest-interval must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep-interval must be > 0")
	}
	return nil
}
