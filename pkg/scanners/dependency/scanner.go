// Package dependency audits project dependencies via the package
// manager's own auditor and carries its severity buckets verbatim.
package dependency

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
)

const (
	// DefaultBinary is the package manager binary.
	DefaultBinary = "npm"

	// LockFile is the lockfile whose presence triggers the audit.
	LockFile = "package-lock.json"

	// DefaultTimeout bounds the audit invocation.
	DefaultTimeout = 8 * time.Second
)

// Scanner runs `npm audit --json` when a lockfile is present in the
// target directory. A host without a Node project is simply clean for
// this domain.
type Scanner struct {
	Binary    string
	TargetDir string
	Timeout   time.Duration
}

// NewScanner creates a dependency scanner targeting the current
// working directory.
func NewScanner() *Scanner {
	return &Scanner{
		Binary:    DefaultBinary,
		TargetDir: ".",
		Timeout:   DefaultTimeout,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "dependency" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainDependencies }

// Scan audits the target directory's dependencies.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	if _, err := os.Stat(filepath.Join(s.TargetDir, LockFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report.DependencyResult{}, nil
		}
		return nil, err
	}

	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    []string{"audit", "--json"},
		WorkDir: s.TargetDir,
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}

	// npm audit exits 1 when vulnerabilities exist; the JSON body is
	// still complete.
	counts, err := parseAuditCounts(res.Stdout)
	if err != nil {
		return nil, err
	}

	return report.DependencyResult{Counts: counts}, nil
}
