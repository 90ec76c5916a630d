// Package filesystem inspects local filesystems for SUID/SGID binaries
// and world-writable files.
package filesystem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
)

const (
	// DefaultBinary is the file search binary.
	DefaultBinary = "find"

	// DefaultTimeout bounds each find invocation.
	DefaultTimeout = 8 * time.Second
)

// DefaultRoots are the directories searched when none are configured.
var DefaultRoots = []string{"/usr", "/etc", "/var", "/home", "/tmp"}

// Scanner searches the given roots for SUID/SGID binaries and
// world-writable regular files. Each search stays on one filesystem
// (-xdev) so network mounts cannot stall the scan.
type Scanner struct {
	Binary  string
	Roots   []string
	Timeout time.Duration
}

// NewScanner creates a filesystem scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Binary:  DefaultBinary,
		Roots:   DefaultRoots,
		Timeout: DefaultTimeout,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "filesystem" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainFilesystem }

// Scan runs both searches over all configured roots. Results are
// sorted so the report is stable across runs of the same host state.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	setuid, err := s.find(ctx, "(", "-perm", "-4000", "-o", "-perm", "-2000", ")")
	if err != nil {
		return nil, err
	}

	writable, err := s.find(ctx, "-perm", "-0002")
	if err != nil {
		return nil, err
	}

	findings := make([]report.Finding, 0, len(writable))
	for _, path := range writable {
		findings = append(findings, report.Finding{
			Subject:  path,
			Issue:    "file is world-writable",
			Severity: report.SeverityMedium,
		})
	}

	return report.FilesystemResult{
		WorldWritable: findings,
		SetuidFiles:   setuid,
	}, nil
}

// find runs one search across all roots and returns the sorted,
// deduplicated paths. find exits 1 when it hit unreadable directories
// but still printed matches; that is not a failure.
func (s *Scanner) find(ctx context.Context, perm ...string) ([]string, error) {
	args := make([]string, 0, len(s.Roots)+len(perm)+4)
	args = append(args, s.Roots...)
	args = append(args, "-xdev", "-type", "f")
	args = append(args, perm...)

	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    args,
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.ExitCode > 1 {
		return nil, fmt.Errorf("filesystem: find exited with code %d: %s", res.ExitCode, res.Stderr)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		paths = append(paths, line)
	}
	sort.Strings(paths)
	return paths, nil
}
