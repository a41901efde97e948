// Package rules defines per-sensor-type threshold rules and their
// evaluation. Rules are loaded once at startup and are immutable for the
// process lifetime, so lookups need no locking.
package rules

import (
	"fmt"
	"strings"
)

// Comparison directions.
const (
	Above = "above"
	Below = "below"
)

// ThresholdRule describes when a sensor type raises which alert. Severity
// is a hint stamped onto the outgoing event; the dispatcher re-derives
// priority on its own.
type ThresholdRule struct {
	SensorType string
	Direction  string
	Threshold  float64
	AlertType  string
	Severity   string
}

// Violated reports whether a value breaks this rule.
func (r ThresholdRule) Violated(value float64) bool {
	switch r.Direction {
	case Above:
		return value > r.Threshold
	case Below:
		return value < r.Threshold
	default:
		return false
	}
}

// Defaults returns the built-in rule set: high temperature, low humidity,
// seismic activity.
func Defaults() []ThresholdRule {
	return []ThresholdRule{
		{SensorType: "temperature", Direction: Above, Threshold: 40.0, AlertType: "HighTemperatureAlert", Severity: "CRITICAL"},
		{SensorType: "humidity", Direction: Below, Threshold: 20.0, AlertType: "LowHumidityWarning", Severity: "WARNING"},
		{SensorType: "seismic", Direction: Above, Threshold: 3.0, AlertType: "SeismicActivityDetected", Severity: "CRITICAL"},
	}
}

// RuleSet holds threshold rules indexed by lowercased sensor type.
type RuleSet struct {
	byType map[string]ThresholdRule
}

// NewRuleSet validates and indexes the given rules. At most one rule per
// sensor type is allowed.
func NewRuleSet(ruleList []ThresholdRule) (*RuleSet, error) {
	byType := make(map[string]ThresholdRule, len(ruleList))
	for _, r := range ruleList {
		if r.SensorType == "" {
			return nil, fmt.Errorf("rule sensor type cannot be empty")
		}
		if r.Direction != Above && r.Direction != Below {
			return nil, fmt.Errorf("rule for %q has invalid direction %q", r.SensorType, r.Direction)
		}
		if r.AlertType == "" {
			return nil, fmt.Errorf("rule for %q has empty alert type", r.SensorType)
		}
		key := strings.ToLower(r.SensorType)
		if _, exists := byType[key]; exists {
			return nil, fmt.Errorf("duplicate rule for sensor type %q", key)
		}
		byType[key] = r
	}
	return &RuleSet{byType: byType}, nil
}

// Lookup returns the rule for a sensor type, matching case-insensitively.
func (rs *RuleSet) Lookup(sensorType string) (ThresholdRule, bool) {
	r, ok := rs.byType[strings.ToLower(sensorType)]
	return r, ok
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.byType)
}
