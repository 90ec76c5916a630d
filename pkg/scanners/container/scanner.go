// Package container inspects running containers for risky settings.
package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/exploopio/posture/pkg/core"
	"github.com/exploopio/posture/pkg/report"
)

const (
	// DefaultBinary is the container runtime CLI.
	DefaultBinary = "docker"

	// DefaultTimeout bounds each docker invocation.
	DefaultTimeout = 8 * time.Second
)

// Scanner lists running containers and flags privileged mode, control
// socket mounts and unpinned images.
type Scanner struct {
	Binary  string
	Timeout time.Duration
}

// NewScanner creates a container scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Binary:  DefaultBinary,
		Timeout: DefaultTimeout,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "container" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainContainers }

// Scan inspects all running containers. A host without a container
// runtime is clean for this domain, not degraded.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	installed, _, err := core.CheckBinaryInstalled(ctx, s.Binary, "--version")
	if err != nil {
		return nil, err
	}
	if !installed {
		return report.ContainerResult{}, nil
	}

	ids, err := s.runningContainers(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return report.ContainerResult{}, nil
	}

	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    append([]string{"inspect"}, ids...),
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("container: docker inspect exited with code %d: %s", res.ExitCode, res.Stderr)
	}

	findings, err := parseInspect(res.Stdout)
	if err != nil {
		return nil, err
	}

	return report.ContainerResult{RiskyContainers: findings}, nil
}

func (s *Scanner) runningContainers(ctx context.Context) ([]string, error) {
	res, err := core.ExecuteScanner(ctx, &core.ExecConfig{
		Binary:  s.Binary,
		Args:    []string{"ps", "-q"},
		Timeout: s.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("container: docker ps exited with code %d: %s", res.ExitCode, res.Stderr)
	}

	var ids []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}
