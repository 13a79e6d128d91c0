package normalize

import "strings"

// Severity levels assigned to findings by a classifier.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
	SeverityInfo   = "info"
)

// Classifier estimates the severity of a finding from its description.
// The estimation is inherently approximate and tool-specific, so it is
// pluggable rather than baked into the adapters.
type Classifier interface {
	Classify(message string) string
}

// KeywordClassifier matches severity-indicating phrases against the
// lowercased finding message, first match wins, defaulting to info.
type KeywordClassifier struct {
	high   []string
	medium []string
	low    []string
}

// NewKeywordClassifier returns a classifier with the default phrase
// lists for web-scanner findings.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		high: []string{
			"remote code execution", "rce", "sql injection", "command injection",
			"arbitrary code", "xss", "cross site scripting", "csrf", "directory traversal",
			"path traversal", "buffer overflow", "privilege escalation", "authentication bypass",
		},
		medium: []string{
			"information disclosure", "information leakage", "default password",
			"default credential", "misconfiguration", "sensitive data", "weak password",
			"insecure configuration", "outdated", "deprecated",
		},
		low: []string{
			"version disclosure", "server type", "banner", "header", "cookie",
			"missing header", "clickjacking", "cacheable", "autocomplete",
		},
	}
}

func (c *KeywordClassifier) Classify(message string) string {
	message = strings.ToLower(message)

	for _, keyword := range c.high {
		if strings.Contains(message, keyword) {
			return SeverityHigh
		}
	}
	for _, keyword := range c.medium {
		if strings.Contains(message, keyword) {
			return SeverityMedium
		}
	}
	for _, keyword := range c.low {
		if strings.Contains(message, keyword) {
			return SeverityLow
		}
	}
	return SeverityInfo
}
