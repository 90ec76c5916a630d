package dependency

import (
	"testing"

	"github.com/exploopio/posture/pkg/report"
)

const auditJSON = `{
  "auditReportVersion": 2,
  "vulnerabilities": {},
  "metadata": {
    "vulnerabilities": {
      "info": 2,
      "low": 3,
      "moderate": 5,
      "high": 1,
      "critical": 1,
      "total": 12
    },
    "dependencies": {"prod": 120, "dev": 340}
  }
}`

func TestParseAuditCounts(t *testing.T) {
	counts, err := parseAuditCounts([]byte(auditJSON))
	if err != nil {
		t.Fatalf("parseAuditCounts: %v", err)
	}

	want := report.VulnCounts{Critical: 1, High: 1, Moderate: 5, Low: 3}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
}

func TestParseAuditCountsIgnoresInfo(t *testing.T) {
	infoOnly := `{"metadata":{"vulnerabilities":{"info":3,"low":0,"moderate":0,"high":0,"critical":0}}}`
	counts, err := parseAuditCounts([]byte(infoOnly))
	if err != nil {
		t.Fatalf("parseAuditCounts: %v", err)
	}
	if counts != (report.VulnCounts{}) {
		t.Errorf("info-only audit produced counts %+v, want all zero", counts)
	}
	if counts.Total() != 0 {
		t.Errorf("info-only audit produced total %d, want 0", counts.Total())
	}
}

func TestParseAuditCountsCleanTree(t *testing.T) {
	clean := `{"metadata":{"vulnerabilities":{"info":0,"low":0,"moderate":0,"high":0,"critical":0}}}`
	counts, err := parseAuditCounts([]byte(clean))
	if err != nil {
		t.Fatalf("parseAuditCounts: %v", err)
	}
	if counts != (report.VulnCounts{}) {
		t.Errorf("clean audit produced counts %+v", counts)
	}
}

func TestParseAuditCountsInvalidJSON(t *testing.T) {
	if _, err := parseAuditCounts([]byte("npm ERR! network timeout")); err == nil {
		t.Error("parseAuditCounts accepted non-JSON output")
	}
}
