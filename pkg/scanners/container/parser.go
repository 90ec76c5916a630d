package container

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/exploopio/posture/pkg/report"
)

// dockerSocket is the control socket whose mount grants root on the host.
const dockerSocket = "/var/run/docker.sock"

// inspectEntry matches the subset of `docker inspect` output consumed
// by the risk rules.
type inspectEntry struct {
	Name   string `json:"Name"`
	Config struct {
		Image string `json:"Image"`
	} `json:"Config"`
	HostConfig struct {
		Privileged bool `json:"Privileged"`
	} `json:"HostConfig"`
	Mounts []struct {
		Source string `json:"Source"`
	} `json:"Mounts"`
}

// parseInspect applies the container risk rules to docker inspect output.
func parseInspect(data []byte) ([]report.Finding, error) {
	var entries []inspectEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("container: parse docker inspect output: %w", err)
	}

	var findings []report.Finding
	for _, e := range entries {
		name := strings.TrimPrefix(e.Name, "/")
		meta := map[string]string{"container": name, "image": e.Config.Image}

		if e.HostConfig.Privileged {
			findings = append(findings, report.Finding{
				Subject:  name,
				Issue:    "container is running in privileged mode",
				Severity: report.SeverityHigh,
				Metadata: meta,
			})
		}

		for _, m := range e.Mounts {
			if m.Source == dockerSocket {
				findings = append(findings, report.Finding{
					Subject:  name,
					Issue:    "container has the docker control socket mounted",
					Severity: report.SeverityHigh,
					Metadata: meta,
				})
				break
			}
		}

		if strings.HasSuffix(e.Config.Image, ":latest") || !strings.Contains(e.Config.Image, ":") {
			findings = append(findings, report.Finding{
				Subject:  name,
				Issue:    fmt.Sprintf("container image %s is not pinned to a version", e.Config.Image),
				Severity: report.SeverityLow,
				Metadata: meta,
			})
		}
	}

	return findings, nil
}
