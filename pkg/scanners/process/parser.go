package process

import (
	"fmt"
	"strings"

	"github.com/exploopio/posture/pkg/report"
)

// scratchDirs are locations an executable should never run from.
var scratchDirs = []string{"/tmp/", "/dev/shm/", "/var/tmp/"}

// listenerTools are binaries commonly used for ad hoc shells and
// exfiltration listeners.
var listenerTools = map[string]bool{
	"nc":     true,
	"ncat":   true,
	"netcat": true,
	"socat":  true,
}

// parseProcesses applies the suspicion rules to
// `ps axo pid=,user=,comm=,args=` output.
func parseProcesses(output string) []report.Finding {
	var findings []report.Finding

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, user, comm := fields[0], fields[1], fields[2]
		args := strings.Join(fields[3:], " ")

		if dir := scratchDir(args); dir != "" {
			findings = append(findings, report.Finding{
				Subject:  fmt.Sprintf("pid %s (%s)", pid, comm),
				Issue:    fmt.Sprintf("process is executing from %s", dir),
				Severity: report.SeverityHigh,
				Metadata: map[string]string{"pid": pid, "user": user, "command": args},
			})
			continue
		}

		if listenerTools[comm] {
			sev := report.SeverityMedium
			if user == "root" {
				sev = report.SeverityHigh
			}
			findings = append(findings, report.Finding{
				Subject:  fmt.Sprintf("pid %s (%s)", pid, comm),
				Issue:    fmt.Sprintf("listener tool %s is running as %s", comm, user),
				Severity: sev,
				Metadata: map[string]string{"pid": pid, "user": user, "command": args},
			})
		}
	}

	return findings
}

// scratchDir returns the scratch directory the command executes from,
// or "" when it does not.
func scratchDir(args string) string {
	exe := args
	if i := strings.IndexByte(exe, ' '); i >= 0 {
		exe = exe[:i]
	}
	for _, dir := range scratchDirs {
		if strings.HasPrefix(exe, dir) {
			return strings.TrimSuffix(dir, "/")
		}
	}
	return ""
}
