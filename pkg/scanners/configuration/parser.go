package configuration

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/exploopio/posture/pkg/report"
)

// unsafeDirectives maps sshd directives to the value considered unsafe
// and the severity of finding it.
var unsafeDirectives = map[string]struct {
	value    string
	severity report.Severity
}{
	"permitrootlogin":        {"yes", report.SeverityHigh},
	"passwordauthentication": {"yes", report.SeverityMedium},
	"permitemptypasswords":   {"yes", report.SeverityHigh},
	"x11forwarding":          {"yes", report.SeverityLow},
}

// parseSSHDConfig flags unsafe directives in sshd_config content.
// Match blocks are skipped: conditional overrides need more context
// than a posture snapshot can judge.
func parseSSHDConfig(path, content string) []report.Finding {
	var findings []report.Finding
	inMatchBlock := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.ToLower(fields[0])
		value := strings.ToLower(fields[1])

		if key == "match" {
			inMatchBlock = true
			continue
		}
		if inMatchBlock {
			continue
		}

		unsafe, ok := unsafeDirectives[key]
		if !ok || value != unsafe.value {
			continue
		}

		findings = append(findings, report.Finding{
			Subject:  path,
			Issue:    fmt.Sprintf("sshd directive %s is set to %s", fields[0], fields[1]),
			Severity: unsafe.severity,
			Metadata: map[string]string{"directive": fields[0], "value": fields[1]},
		})
	}

	return findings
}

// secretNamePattern matches environment variable names that typically
// hold credentials.
var secretNamePattern = regexp.MustCompile(`(?i)(^|_)(SECRET|TOKEN|PASSWORD|PASSWD|API_?KEY|PRIVATE_?KEY|CREDENTIALS?)(_|$)`)

// detectEnvSecrets returns the sorted names of secret-looking
// environment variables with non-empty values. Only names are
// recorded; values never enter the report.
func detectEnvSecrets(env []string) []string {
	var names []string
	for _, kv := range env {
		i := strings.IndexByte(kv, '=')
		if i <= 0 || i == len(kv)-1 {
			continue
		}
		name := kv[:i]
		if secretNamePattern.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
