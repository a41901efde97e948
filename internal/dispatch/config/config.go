// Package config provides configuration parsing and validation for the
// notification dispatcher.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the notification dispatcher.
type Config struct {
	KafkaBrokers     string
	EventsTopic      string
	QueueName        string
	PostgresDSN      string
	HTTPAddr         string
	RedisAddr        string
	FlushInterval    time.Duration
	Workers          int
	CriticalKeywords string
	WarningKeywords  string
	EmailRecipient   string
	SMSRecipient     string
	PushRecipient    string
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
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush-interval must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.CriticalKeywords == "" {
		return fmt.Errorf("critical-keywords cannot be empty")
	}
	if c.WarningKeywords == "" {
		return fmt.Errorf("warning-keywords cannot be empty")
	}
	return nil
}
