// Package classify derives a notification priority from an alert type
// name. Classification is a keyword heuristic, not a lookup table: the
// critical list is checked before the warning list, each by
// case-insensitive substring match, first match wins.
package classify

import "strings"

// Priority is the dispatch priority of an alert.
type Priority string

const (
	Critical Priority = "CRITICAL"
	Warning  Priority = "WARNING"
	Info     Priority = "INFO"
)

// Default keyword lists. Both are externally configurable; these cover the
// built-in alert types.
const (
	DefaultCriticalKeywords = "seismic,temperature,critical"
	DefaultWarningKeywords  = "humidity,warning"
)

// Classifier matches alert types against ordered keyword lists.
type Classifier struct {
	critical []string
	warning  []string
}

// ParseKeywords splits a comma-separated keyword list, trimming whitespace
// and lowercasing. Order is preserved.
func ParseKeywords(s string) []string {
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// NewClassifier creates a classifier from ordered keyword lists.
func NewClassifier(critical, warning []string) *Classifier {
	return &Classifier{critical: critical, warning: warning}
}

// NewDefaultClassifier creates a classifier with the default keyword lists.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(ParseKeywords(DefaultCriticalKeywords), ParseKeywords(DefaultWarningKeywords))
}

// Classify returns the priority for an alert type. Unmatched or empty
// types are INFO.
func (c *Classifier) Classify(alertType string) Priority {
	if alertType == "" {
		return Info
	}

	typeLower := strings.ToLower(alertType)

	for _, keyword := range c.critical {
		if strings.Contains(typeLower, keyword) {
			return Critical
		}
	}
	for _, keyword := range c.warning {
		if strings.Contains(typeLower, keyword) {
			return Warning
		}
	}

	return Info
}
