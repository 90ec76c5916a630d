package core

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/exploopio/posture/pkg/errors"
)

// ExecConfig configures one external tool invocation.
type ExecConfig struct {
	Binary  string
	Args    []string
	WorkDir string
	Env     []string
	Timeout time.Duration
}

// ExecResult holds the captured output of a tool invocation.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// ExecuteScanner runs an external tool, capturing its output. The
// returned error carries a Kind: timeout when the deadline fired,
// not_found when the binary is missing, permission when execution was
// denied. A non-zero exit with output is not an error by itself; the
// caller decides what exit codes mean for its tool.
func ExecuteScanner(ctx context.Context, cfg *ExecConfig) (*ExecResult, error) {
	const op = "core.ExecuteScanner"

	if cfg == nil || cfg.Binary == "" {
		return nil, errors.E(errors.KindInvalidInput, op, "binary is required", nil)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, cfg.Binary, cfg.Args...)
	cmd.Dir = cfg.WorkDir
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := &ExecResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			return res, errors.E(errors.KindTimeout, op, cfg.Binary+" timed out", err)
		case stderrors.Is(err, exec.ErrNotFound):
			return res, errors.E(errors.KindNotFound, op, cfg.Binary+" not found in PATH", err)
		case stderrors.Is(err, fs.ErrPermission):
			return res, errors.E(errors.KindPermission, op, cfg.Binary+" not executable", err)
		case stderrors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		default:
			return res, errors.E(errors.KindInternal, op, "run "+cfg.Binary, err)
		}
	}

	return res, nil
}

// CheckBinaryInstalled runs a binary with a version argument to check
// availability. Returns whether it is installed and the first line of
// its version output.
func CheckBinaryInstalled(ctx context.Context, binary, versionArg string) (bool, string, error) {
	res, err := ExecuteScanner(ctx, &ExecConfig{
		Binary:  binary,
		Args:    []string{versionArg},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return false, "", nil
		}
		return false, "", err
	}

	version := strings.TrimSpace(string(res.Stdout))
	if version == "" {
		version = strings.TrimSpace(string(res.Stderr))
	}
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return true, version, nil
}
