package risk

import (
	"testing"

	"github.com/exploopio/posture/pkg/report"
)

// cleanResults returns a result set with nothing to report and the
// firewall enabled.
func cleanResults() report.ResultSet {
	return report.ResultSet{
		Network: report.NetworkResult{FirewallActive: true},
	}
}

func finding(sev report.Severity) report.Finding {
	return report.Finding{Subject: "test", Issue: "test issue", Severity: sev}
}

func TestSummarizeClean(t *testing.T) {
	s := Summarize(cleanResults())

	if s.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d, want 0", s.TotalIssues)
	}
	if s.RiskLevel != report.RiskClean {
		t.Errorf("RiskLevel = %s, want CLEAN", s.RiskLevel)
	}
}

func TestSummarizeSingleCritical(t *testing.T) {
	rs := cleanResults()
	rs.Network.OpenPorts = []report.Finding{finding(report.SeverityCritical)}

	s := Summarize(rs)
	if s.RiskLevel != report.RiskCritical {
		t.Errorf("RiskLevel = %s, want CRITICAL", s.RiskLevel)
	}
	if s.TotalIssues != 1 || s.CriticalIssues != 1 {
		t.Errorf("TotalIssues = %d, CriticalIssues = %d, want 1, 1", s.TotalIssues, s.CriticalIssues)
	}
}

func TestRiskLadderCriticalOutranksEverything(t *testing.T) {
	rs := cleanResults()
	rs.Processes.Suspicious = []report.Finding{finding(report.SeverityCritical)}
	for i := 0; i < 50; i++ {
		rs.Filesystem.WorldWritable = append(rs.Filesystem.WorldWritable, finding(report.SeverityMedium))
		rs.Containers.RiskyContainers = append(rs.Containers.RiskyContainers, finding(report.SeverityLow))
	}

	s := Summarize(rs)
	if s.RiskLevel != report.RiskCritical {
		t.Errorf("RiskLevel = %s, want CRITICAL despite %d lower findings", s.RiskLevel, 100)
	}
}

func TestRiskLadderPriority(t *testing.T) {
	tests := []struct {
		name string
		sev  report.Severity
		want report.RiskLevel
	}{
		{"high only", report.SeverityHigh, report.RiskHigh},
		{"medium only", report.SeverityMedium, report.RiskMedium},
		{"low only", report.SeverityLow, report.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := cleanResults()
			rs.Containers.RiskyContainers = []report.Finding{finding(tt.sev)}
			if s := Summarize(rs); s.RiskLevel != tt.want {
				t.Errorf("RiskLevel = %s, want %s", s.RiskLevel, tt.want)
			}
		})
	}
}

func TestStructuralPenalties(t *testing.T) {
	t.Run("firewall disabled adds one high", func(t *testing.T) {
		rs := cleanResults()
		rs.Network.FirewallActive = false

		s := Summarize(rs)
		if s.HighIssues != 1 || s.RiskLevel != report.RiskHigh {
			t.Errorf("got HighIssues=%d RiskLevel=%s, want 1 HIGH", s.HighIssues, s.RiskLevel)
		}
	})

	t.Run("dependency buckets added verbatim", func(t *testing.T) {
		rs := cleanResults()
		rs.Dependencies.Counts = report.VulnCounts{Critical: 1, High: 2, Moderate: 3, Low: 4}

		s := Summarize(rs)
		if s.CriticalIssues != 1 || s.HighIssues != 2 || s.MediumIssues != 3 || s.LowIssues != 4 {
			t.Errorf("counts = %d/%d/%d/%d, want 1/2/3/4",
				s.CriticalIssues, s.HighIssues, s.MediumIssues, s.LowIssues)
		}
		if s.TotalIssues != 10 {
			t.Errorf("TotalIssues = %d, want 10", s.TotalIssues)
		}
		if s.RiskLevel != report.RiskCritical {
			t.Errorf("RiskLevel = %s, want CRITICAL", s.RiskLevel)
		}
	})

	t.Run("each setuid file adds one low", func(t *testing.T) {
		rs := cleanResults()
		rs.Filesystem.SetuidFiles = []string{"/usr/bin/passwd", "/usr/bin/sudo", "/opt/x"}

		s := Summarize(rs)
		if s.LowIssues != 3 || s.RiskLevel != report.RiskLow {
			t.Errorf("got LowIssues=%d RiskLevel=%s, want 3 LOW", s.LowIssues, s.RiskLevel)
		}
	})

	t.Run("each env secret adds one high", func(t *testing.T) {
		rs := cleanResults()
		rs.Configuration.EnvSecrets = []string{"AWS_SECRET_ACCESS_KEY", "DB_PASSWORD"}

		s := Summarize(rs)
		if s.HighIssues != 2 || s.RiskLevel != report.RiskHigh {
			t.Errorf("got HighIssues=%d RiskLevel=%s, want 2 HIGH", s.HighIssues, s.RiskLevel)
		}
	})
}

func TestDegradedDomainsContributeNothing(t *testing.T) {
	rs := cleanResults()
	rs.Network = report.NetworkResult{Degraded: true} // unknown firewall is not a disabled firewall
	rs.Dependencies = report.DependencyResult{Counts: report.VulnCounts{Critical: 5}, Degraded: true}
	rs.Filesystem = report.FilesystemResult{SetuidFiles: []string{"/x"}, Degraded: true}
	rs.Configuration = report.ConfigurationResult{EnvSecrets: []string{"TOKEN"}, Degraded: true}
	rs.Processes = report.ProcessResult{Suspicious: []report.Finding{finding(report.SeverityCritical)}, Degraded: true}

	s := Summarize(rs)
	if s.TotalIssues != 0 || s.RiskLevel != report.RiskClean {
		t.Errorf("degraded domains leaked into summary: %+v", s)
	}
}

func TestTotalEqualsSumOfCounters(t *testing.T) {
	rs := cleanResults()
	rs.Network.FirewallActive = false
	rs.Network.OpenPorts = []report.Finding{finding(report.SeverityHigh), finding(report.SeverityLow)}
	rs.Processes.Suspicious = []report.Finding{finding(report.SeverityMedium)}
	rs.Filesystem.SetuidFiles = []string{"/usr/bin/passwd"}
	rs.Dependencies.Counts = report.VulnCounts{Moderate: 2}
	rs.Configuration.EnvSecrets = []string{"API_KEY"}

	s := Summarize(rs)
	sum := s.CriticalIssues + s.HighIssues + s.MediumIssues + s.LowIssues
	if s.TotalIssues != sum {
		t.Errorf("TotalIssues = %d, sum of counters = %d", s.TotalIssues, sum)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	rs := cleanResults()
	rs.Network.OpenPorts = []report.Finding{finding(report.SeverityHigh)}
	rs.Configuration.EnvSecrets = []string{"SECRET_A", "SECRET_B"}

	first := Summarize(rs)
	for i := 0; i < 10; i++ {
		if got := Summarize(rs); got != first {
			t.Fatalf("Summarize is not deterministic: %+v != %+v", got, first)
		}
	}
}
