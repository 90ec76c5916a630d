// Package attest hashes and signs canonical scan reports, and verifies
// (report, hash, signature, public key) triples.
//
// The digest and signature algorithms are independent axes: the SHA-256
// hex digest doubles as the human-displayable fingerprint, and the
// ed25519 signature is computed over the raw digest bytes.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/exploopio/posture/pkg/canonical"
	"github.com/exploopio/posture/pkg/report"
)

// Attestation is the result of signing a report.
type Attestation struct {
	// Hash is the SHA-256 digest of the canonical report, hex encoded.
	Hash string

	// Signature is the ed25519 signature over the digest bytes,
	// base64 (standard) encoded.
	Signature string
}

// Sign computes the canonical digest of the report and signs it.
func Sign(r *report.ScanReport, priv ed25519.PrivateKey) (*Attestation, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("attest: private key is %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}

	digest, err := digestReport(r)
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(priv, digest)
	return &Attestation{
		Hash:      hex.EncodeToString(digest),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Verify reports whether the triple proves the report's integrity. It
// recomputes the canonical digest from the supplied report, rejects on
// digest mismatch (report body tampered), then checks the signature
// against the recomputed digest and the supplied public key.
//
// All failure paths, including malformed input, resolve to false;
// Verify never returns an error and holds no state.
func Verify(r *report.ScanReport, hash, signature string, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	digest, err := digestReport(r)
	if err != nil {
		return false
	}
	if hex.EncodeToString(digest) != hash {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(pub, digest, sig)
}

func digestReport(r *report.ScanReport) ([]byte, error) {
	data, err := canonical.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("attest: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}
