package canonical

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/exploopio/posture/pkg/report"
)

func sampleReport() *report.ScanReport {
	return &report.ScanReport{
		Timestamp: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Hostname:  "testhost",
		Results: report.ResultSet{
			Network: report.NetworkResult{
				OpenPorts: []report.Finding{{
					Subject:  "0.0.0.0:6379/tcp",
					Issue:    "redis port 6379 is listening on a non-loopback address",
					Severity: report.SeverityHigh,
					Metadata: map[string]string{"port": "6379", "proto": "tcp", "service": "redis"},
				}},
				FirewallActive: true,
			},
			Configuration: report.ConfigurationResult{
				EnvSecrets: []string{"AWS_SECRET_ACCESS_KEY"},
			},
		},
		Summary: report.Summary{
			TotalIssues: 2, HighIssues: 2, RiskLevel: report.RiskHigh,
		},
	}
}

func TestMarshalIdempotent(t *testing.T) {
	r := sampleReport()

	first, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two encodings of the same report differ")
	}
}

func TestMarshalMapOrderStable(t *testing.T) {
	// Build the metadata map in two different insertion orders; the
	// canonical bytes must not depend on it.
	a := sampleReport()
	a.Results.Network.OpenPorts[0].Metadata = map[string]string{}
	a.Results.Network.OpenPorts[0].Metadata["port"] = "6379"
	a.Results.Network.OpenPorts[0].Metadata["proto"] = "tcp"
	a.Results.Network.OpenPorts[0].Metadata["service"] = "redis"

	b := sampleReport()
	b.Results.Network.OpenPorts[0].Metadata = map[string]string{}
	b.Results.Network.OpenPorts[0].Metadata["service"] = "redis"
	b.Results.Network.OpenPorts[0].Metadata["proto"] = "tcp"
	b.Results.Network.OpenPorts[0].Metadata["port"] = "6379"

	ba, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	bb, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(ba, bb) {
		t.Error("canonical bytes depend on map insertion order")
	}
}

func TestMarshalDomainOrderFixed(t *testing.T) {
	data, err := Marshal(sampleReport())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	s := string(data)
	domains := []string{`"network"`, `"processes"`, `"filesystem"`, `"dependencies"`, `"configuration"`, `"containers"`}
	last := -1
	for _, d := range domains {
		i := strings.Index(s, d)
		if i < 0 {
			t.Fatalf("canonical form is missing domain key %s", d)
		}
		if i < last {
			t.Errorf("domain %s appears out of canonical order", d)
		}
		last = i
	}
}

func TestMarshalNormalizesTimezone(t *testing.T) {
	utc := sampleReport()

	local := sampleReport()
	local.Timestamp = utc.Timestamp.In(time.FixedZone("TEST", 2*3600))

	bu, err := Marshal(utc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	bl, err := Marshal(local)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(bu, bl) {
		t.Error("canonical bytes depend on the timestamp's zone representation")
	}
}

func TestMarshalNilReport(t *testing.T) {
	if _, err := Marshal(nil); err == nil {
		t.Error("Marshal(nil) should fail")
	}
}

func TestMarshalDistinguishesReports(t *testing.T) {
	a := sampleReport()
	b := sampleReport()
	b.Results.Configuration.EnvSecrets = append(b.Results.Configuration.EnvSecrets, "DB_PASSWORD")

	ba, _ := Marshal(a)
	bb, _ := Marshal(b)
	if bytes.Equal(ba, bb) {
		t.Error("different reports produced identical canonical bytes")
	}
}
