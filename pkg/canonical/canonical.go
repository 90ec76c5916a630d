// Package canonical produces the deterministic byte encoding of a scan
// report used as the hash input for attestation.
//
// Two logical copies of the same report must encode to identical bytes
// regardless of how they were assembled: domain order is fixed by the
// ResultSet struct declaration, field order within each record by the
// data model declaration, map keys are emitted sorted, and timestamps
// are normalized to UTC.
package canonical

import (
	"encoding/json"
	"fmt"

	"github.com/exploopio/posture/pkg/report"
)

// Marshal encodes a report into its canonical form. An encoding failure
// is fatal to the scan run: a partial canonical form would make the
// hash meaningless.
func Marshal(r *report.ScanReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("canonical: nil report")
	}

	// Normalize the timestamp so the wall-clock zone of the scanning
	// host never changes the bytes. Everything else in the report is
	// already order-stable: ResultSet and Summary are structs, and
	// encoding/json emits map keys (finding metadata) sorted.
	c := *r
	c.Timestamp = r.Timestamp.UTC()

	data, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("canonical: encode report: %w", err)
	}
	return data, nil
}
