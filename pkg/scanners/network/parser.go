package network

import (
	"fmt"
	"strings"

	"github.com/exploopio/posture/pkg/report"
)

// riskyPorts maps well-known dangerous services to the severity of
// exposing them beyond loopback.
var riskyPorts = map[string]struct {
	service  string
	severity report.Severity
}{
	"21":    {"ftp", report.SeverityHigh},
	"23":    {"telnet", report.SeverityHigh},
	"445":   {"smb", report.SeverityMedium},
	"2375":  {"docker-api", report.SeverityHigh},
	"3389":  {"rdp", report.SeverityHigh},
	"5900":  {"vnc", report.SeverityHigh},
	"6379":  {"redis", report.SeverityHigh},
	"9200":  {"elasticsearch", report.SeverityHigh},
	"11211": {"memcached", report.SeverityMedium},
	"27017": {"mongodb", report.SeverityHigh},
}

// parseListeners turns `ss -H -tuln` output into findings. Loopback
// listeners are skipped: only sockets reachable from off-host count.
func parseListeners(output string) []report.Finding {
	var findings []report.Finding
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		// Netid State Recv-Q Send-Q Local Peer
		if len(fields) < 5 {
			continue
		}
		proto := fields[0]
		local := fields[4]

		host, port, ok := splitHostPort(local)
		if !ok || isLoopback(host) {
			continue
		}

		key := proto + "/" + port
		if seen[key] {
			continue
		}
		seen[key] = true

		subject := fmt.Sprintf("%s:%s/%s", host, port, proto)
		if risky, ok := riskyPorts[port]; ok {
			findings = append(findings, report.Finding{
				Subject:  subject,
				Issue:    fmt.Sprintf("%s port %s is listening on a non-loopback address", risky.service, port),
				Severity: risky.severity,
				Metadata: map[string]string{"port": port, "proto": proto, "service": risky.service},
			})
			continue
		}

		findings = append(findings, report.Finding{
			Subject:  subject,
			Issue:    fmt.Sprintf("port %s is listening on a non-loopback address", port),
			Severity: report.SeverityLow,
			Metadata: map[string]string{"port": port, "proto": proto},
		})
	}

	return findings
}

// splitHostPort splits an ss local address like "0.0.0.0:22",
// "[::]:80" or "*:631" into host and port.
func splitHostPort(addr string) (host, port string, ok bool) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 || i == len(addr)-1 {
		return "", "", false
	}
	host = strings.Trim(addr[:i], "[]")
	port = addr[i+1:]
	return host, port, true
}

func isLoopback(host string) bool {
	return strings.HasPrefix(host, "127.") || host == "::1" || host == "localhost"
}
