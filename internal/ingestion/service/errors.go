package service

import "fmt"

// ValidationError rejects malformed or out-of-range input at the ingestion
// boundary. It is surfaced to the caller and produces no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BusinessRuleError rejects input that is well-formed but violates a
// domain-specific rule, such as an implausible temperature. Kept distinct
// from ValidationError so the two are observable separately.
type BusinessRuleError struct {
	Rule   string
	Reason string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Reason)
}

// PublishError reports that the bus publish failed after the reading was
// already stored. The caller may retry the whole submission; a successful
// retry can create a duplicate stored reading.
type PublishError struct {
	EventID string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("reading stored but event %s could not be published: %v", e.EventID, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
