package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/exploopio/posture/pkg/attest"
	"github.com/exploopio/posture/pkg/report"
	"github.com/exploopio/posture/pkg/store"
)

func signedTestArtifact(t *testing.T) (*report.SignedArtifact, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}

	r := report.ScanReport{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Hostname:  "testhost",
		Results: report.ResultSet{
			Network: report.NetworkResult{FirewallActive: true},
		},
		Summary: report.Summary{RiskLevel: report.RiskClean},
	}
	att, err := attest.Sign(&r, priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return &report.SignedArtifact{
		Report:       r,
		Hash:         att.Hash,
		Signature:    att.Signature,
		PublicKeyRef: "/tmp/keys/posture_ed25519.pub",
	}, pub
}

func TestLoadArtifactFromFile(t *testing.T) {
	artifact, pub := signedTestArtifact(t)

	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("encode artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "artifact.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	got, err := loadArtifact(context.Background(), filepath.Join(t.TempDir(), "unused.db"), path)
	if err != nil {
		t.Fatalf("loadArtifact: %v", err)
	}
	if got.Hash != artifact.Hash || got.Signature != artifact.Signature {
		t.Error("artifact loaded from file lost attestation fields")
	}
	if !attest.Verify(&got.Report, got.Hash, got.Signature, pub) {
		t.Error("artifact loaded from file does not verify")
	}
}

func TestLoadArtifactFromStoreID(t *testing.T) {
	artifact, pub := signedTestArtifact(t)
	dbPath := filepath.Join(t.TempDir(), "posture.db")

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := s.SaveArtifact(context.Background(), artifact)
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := loadArtifact(context.Background(), dbPath, id)
	if err != nil {
		t.Fatalf("loadArtifact by record ID: %v", err)
	}
	if got.Hash != artifact.Hash || got.Signature != artifact.Signature {
		t.Error("artifact loaded by record ID lost attestation fields")
	}
	if !attest.Verify(&got.Report, got.Hash, got.Signature, pub) {
		t.Error("artifact loaded by record ID does not verify")
	}
}

func TestLoadArtifactUnknownRef(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "posture.db")
	if _, err := loadArtifact(context.Background(), dbPath, "no-such-file-or-id"); err == nil {
		t.Error("loadArtifact should fail for a reference that is neither a file nor a record")
	}
}

func TestLoadArtifactRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadArtifact(context.Background(), filepath.Join(t.TempDir(), "unused.db"), path); err == nil {
		t.Error("loadArtifact should fail for a malformed artifact file")
	}
}
