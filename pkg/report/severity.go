// Package report defines the data model for a posture scan: findings,
// per-domain results, the scan report, and the signed artifact issued
// for it.
package report

import "strings"

// Severity classifies a single finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Priority returns the numeric priority of the severity.
// Higher numbers = higher priority.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity normalizes severity strings from external tools.
// "moderate" (npm audit) maps to medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "crit":
		return SeverityCritical
	case "high", "error", "severe":
		return SeverityHigh
	case "medium", "moderate", "warning", "med":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RiskLevel is the overall risk classification of a report.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskClean    RiskLevel = "CLEAN"
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}
