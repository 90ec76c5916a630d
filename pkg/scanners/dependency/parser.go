package dependency

import (
	"encoding/json"
	"fmt"

	"github.com/exploopio/posture/pkg/report"
)

// auditOutput matches the npm v7+ `npm audit --json` envelope. Only
// the severity buckets are consumed; individual advisories stay with
// the auditor.
type auditOutput struct {
	Metadata struct {
		Vulnerabilities struct {
			Low      int `json:"low"`
			Moderate int `json:"moderate"`
			High     int `json:"high"`
			Critical int `json:"critical"`
		} `json:"vulnerabilities"`
	} `json:"metadata"`
}

// parseAuditCounts extracts the auditor's severity buckets verbatim:
// critical, high, moderate and low carry over one to one. Info-level
// advisories fall outside the severity mapping and are ignored.
func parseAuditCounts(data []byte) (report.VulnCounts, error) {
	var out auditOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return report.VulnCounts{}, fmt.Errorf("dependency: parse npm audit output: %w", err)
	}

	v := out.Metadata.Vulnerabilities
	return report.VulnCounts{
		Critical: v.Critical,
		High:     v.High,
		Moderate: v.Moderate,
		Low:      v.Low,
	}, nil
}
