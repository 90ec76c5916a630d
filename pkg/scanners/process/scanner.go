// Package process inspects running processes for suspicious traits.
package process

import (
	"context"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
)

const (
	// DefaultBinary is the process listing binary.
	DefaultBinary = "ps"

	// DefaultTimeout bounds the ps invocation.
	DefaultTimeout = 8 * time.Second
)

// Scanner flags processes executing from scratch directories and
// listener tools commonly used for ad hoc shells.
type Scanner struct {
	Binary  string
	Timeout time.Duration
}

// NewScanner creates a process scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Binary:  DefaultBinary,
		Timeout: DefaultTimeout,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "process" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainProcesses }

// Scan lists all processes and applies the suspicion rules.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    []string{"axo", "pid=,user=,comm=,args="},
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return report.ProcessResult{
		Suspicious: parseProcesses(string(res.Stdout)),
	}, nil
}
