// Package core provides the scanner contract, the external tool
// execution helper, and the logging interface shared by all domain
// scanners.
package core

import (
	"context"

	"github.com/exploopio/posture/pkg/report"
)

// Scanner is the contract every domain scanner satisfies. Scanners are
// pairwise independent and share no mutable state; the orchestrator
// enforces the time bound externally rather than trusting the scanner.
//
// Scan returns the domain's typed result. Internal failures (missing
// binary, permission denied) surface as errors; the orchestrator
// converts them into an empty, degraded result for that domain only.
// Scanners must not panic.
type Scanner interface {
	// Name returns the scanner name (e.g., "network", "containers")
	Name() string

	// Domain returns the inspection domain the scanner covers
	Domain() report.Domain

	// Scan inspects the local host and returns the domain result
	Scan(ctx context.Context) (report.DomainResult, error)
}
