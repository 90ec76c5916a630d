// Package network inspects listening sockets and the host firewall.
package network

import (
	"context"
	"strings"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
)

const (
	// DefaultBinary is the socket statistics binary.
	DefaultBinary = "ss"

	// DefaultTimeout bounds each tool invocation; the orchestrator
	// applies its own bound on top.
	DefaultTimeout = 8 * time.Second
)

// Scanner lists listening sockets and checks firewall state.
type Scanner struct {
	Binary  string
	Timeout time.Duration
}

// NewScanner creates a network scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Binary:  DefaultBinary,
		Timeout: DefaultTimeout,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "network" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainNetwork }

// Scan lists listening sockets via ss and probes the firewall. The
// firewall probe is best effort: a missing firewall tool counts as an
// inactive firewall, not as a scan failure.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    []string{"-H", "-tuln"},
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return report.NetworkResult{
		OpenPorts:      parseListeners(string(res.Stdout)),
		FirewallActive: s.firewallActive(ctx),
	}, nil
}

// firewallActive checks ufw first, then falls back to a non-empty
// nftables ruleset.
func (s *Scanner) firewallActive(ctx context.Context) bool {
	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  "ufw",
		Args:    []string{"status"},
		Timeout: s.Timeout,
	})
	if err == nil && res.ExitCode == 0 {
		return strings.Contains(string(res.Stdout), "Status: active")
	}

	res, err = core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  "nft",
		Args:    []string{"list", "ruleset"},
		Timeout: s.Timeout,
	})
	if err != nil || res.ExitCode != 0 {
		return false
	}
	return strings.TrimSpace(string(res.Stdout)) != ""
}
