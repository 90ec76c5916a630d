// Package risk derives the report summary from a result set.
package risk

import "github.com/exploopio/posture/pkg/report"

// counts accumulates findings by severity.
type counts struct {
	critical int
	high     int
	medium   int
	low      int
}

func (c *counts) add(sev report.Severity, n int) {
	switch sev {
	case report.SeverityCritical:
		c.critical += n
	case report.SeverityHigh:
		c.high += n
	case report.SeverityMedium:
		c.medium += n
	case report.SeverityLow:
		c.low += n
	}
}

// Summarize computes the summary for a result set. It is a pure
// function: recomputing it later over the same results yields a
// bit-identical summary.
//
// Beyond counting findings, a few structural observations contribute
// fixed penalties:
//   - firewall absent or disabled: +1 high
//   - dependency auditor buckets: added verbatim (moderate counts as medium)
//   - each SUID/SGID file: +1 low
//   - each environment-variable secret: +1 high
//
// Degraded domains contribute nothing, including structural penalties:
// an unknown firewall state is not a disabled firewall.
func Summarize(rs report.ResultSet) report.Summary {
	var c counts

	for _, d := range report.Domains() {
		dr := rs.Get(d)
		if dr.IsDegraded() {
			continue
		}
		for _, f := range dr.Findings() {
			c.add(f.Severity, 1)
		}
	}

	if !rs.Network.Degraded && !rs.Network.FirewallActive {
		c.high++
	}

	if !rs.Dependencies.Degraded {
		vc := rs.Dependencies.Counts
		c.critical += vc.Critical
		c.high += vc.High
		c.medium += vc.Moderate
		c.low += vc.Low
	}

	if !rs.Filesystem.Degraded {
		c.low += len(rs.Filesystem.SetuidFiles)
	}

	if !rs.Configuration.Degraded {
		c.high += len(rs.Configuration.EnvSecrets)
	}

	return report.Summary{
		TotalIssues:    c.critical + c.high + c.medium + c.low,
		CriticalIssues: c.critical,
		HighIssues:     c.high,
		MediumIssues:   c.medium,
		LowIssues:      c.low,
		RiskLevel:      resolveRiskLevel(c),
	}
}

// resolveRiskLevel applies the strict priority ladder: a single
// critical always outranks any number of lower-severity issues.
func resolveRiskLevel(c counts) report.RiskLevel {
	switch {
	case c.critical > 0:
		return report.RiskCritical
	case c.high > 0:
		return report.RiskHigh
	case c.medium > 0:
		return report.RiskMedium
	case c.low > 0:
		return report.RiskLow
	default:
		return report.RiskClean
	}
}
