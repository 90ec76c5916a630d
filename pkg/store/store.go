// Package store persists issued signed artifacts in a local SQLite
// database so prior scans can be listed and re-verified. The store is
// append-only evidence: artifacts are never updated in place.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/exploopio/posture/pkg/report"
)

// createdAtLayout is RFC3339 UTC with fixed nanosecond width. The
// column is TEXT and ordered lexicographically, so the width must not
// vary: RFC3339Nano trims trailing fractional zeros, which would sort
// whole seconds after fractional ones.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ArtifactRecord is one row of artifact history metadata.
type ArtifactRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Hostname  string    `json:"hostname"`
	RiskLevel string    `json:"risk_level"`
	Hash      string    `json:"hash"`
}

// Store provides SQLite-backed artifact storage. Report bodies are
// compressed with zstd.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens (or creates) the artifact database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: set pragma: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create decompressor: %w", err)
	}

	s := &Store{db: db, enc: enc, dec: dec}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		hostname TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		hash TEXT NOT NULL,
		signature TEXT NOT NULL,
		public_key_ref TEXT NOT NULL,
		report_zstd BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveArtifact appends a signed artifact and returns its record ID.
func (s *Store) SaveArtifact(ctx context.Context, a *report.SignedArtifact) (string, error) {
	body, err := json.Marshal(&a.Report)
	if err != nil {
		return "", fmt.Errorf("store: encode report: %w", err)
	}
	compressed := s.enc.EncodeAll(body, nil)

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, created_at, hostname, risk_level, hash, signature, public_key_ref, report_zstd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		a.Report.Timestamp.UTC().Format(createdAtLayout),
		a.Report.Hostname,
		string(a.Report.Summary.RiskLevel),
		a.Hash,
		a.Signature,
		a.PublicKeyRef,
		compressed,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert artifact: %w", err)
	}
	return id, nil
}

// GetArtifact loads a signed artifact by record ID.
func (s *Store) GetArtifact(ctx context.Context, id string) (*report.SignedArtifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, signature, public_key_ref, report_zstd
		FROM artifacts WHERE id = ?`, id)

	var a report.SignedArtifact
	var compressed []byte
	if err := row.Scan(&a.Hash, &a.Signature, &a.PublicKeyRef, &compressed); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: artifact %s not found", id)
		}
		return nil, fmt.Errorf("store: load artifact: %w", err)
	}

	body, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("store: decompress report: %w", err)
	}
	if err := json.Unmarshal(body, &a.Report); err != nil {
		return nil, fmt.Errorf("store: decode report: %w", err)
	}
	return &a, nil
}

// ListArtifacts returns history metadata, newest first.
func (s *Store) ListArtifacts(ctx context.Context, limit int) ([]ArtifactRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, hostname, risk_level, hash
		FROM artifacts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list artifacts: %w", err)
	}
	defer rows.Close()

	var records []ArtifactRecord
	for rows.Next() {
		var r ArtifactRecord
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Hostname, &r.RiskLevel, &r.Hash); err != nil {
			return nil, fmt.Errorf("store: scan artifact row: %w", err)
		}
		// RFC3339Nano parses both the fixed-width form and any older
		// trimmed rows.
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database and compression resources.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
