// Package configuration inspects host configuration: SSH daemon
// directives and secrets exposed through environment variables.
//
// The environment snapshot is an explicit constructor input so callers
// and tests can inject a synthetic environment instead of depending on
// ambient process state.
package configuration

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/exploopio/posture/pkg/report"
)

// DefaultSSHDConfigPath is the SSH daemon configuration file.
const DefaultSSHDConfigPath = "/etc/ssh/sshd_config"

// Scanner inspects sshd_config and the captured environment snapshot.
type Scanner struct {
	SSHDConfigPath string
	env            []string
}

// NewScanner creates a configuration scanner over the given
// environment snapshot.
func NewScanner(env []string) *Scanner {
	return &Scanner{
		SSHDConfigPath: DefaultSSHDConfigPath,
		env:            env,
	}
}

// Name returns the scanner name.
func (s *Scanner) Name() string { return "configuration" }

// Domain returns the inspection domain.
func (s *Scanner) Domain() report.Domain { return report.DomainConfiguration }

// Scan parses the SSH daemon configuration and flags secret-looking
// environment variables. A host without sshd is clean for the SSH
// checks, not degraded.
func (s *Scanner) Scan(ctx context.Context) (report.DomainResult, error) {
	var directives []report.Finding

	data, err := os.ReadFile(s.SSHDConfigPath)
	switch {
	case err == nil:
		directives = parseSSHDConfig(s.SSHDConfigPath, string(data))
	case errors.Is(err, fs.ErrNotExist):
		// no sshd on this host
	default:
		return nil, err
	}

	return report.ConfigurationResult{
		UnsafeDirectives: directives,
		EnvSecrets:       detectEnvSecrets(s.env),
		KernelRelease:    kernelRelease(),
	}, nil
}
