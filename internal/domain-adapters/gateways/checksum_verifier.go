package gateways

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// checksumVerifier implements checksum verification using pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file against an expected hex digest. The digest
// length selects the algorithm: 64 hex chars for SHA-256, 128 for SHA-512.
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	expectedSum = strings.ToLower(strings.TrimSpace(expectedSum))

	var h hash.Hash
	switch len(expectedSum) {
	case sha256.Size * 2:
		h = sha256.New()
	case sha512.Size * 2:
		h = sha512.New()
	default:
		return fmt.Errorf("unrecognized digest length %d", len(expectedSum))
	}

	actualSum, err := v.digest(filePath, h)
	if err != nil {
		return err
	}

	if actualSum != expectedSum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}

	return nil
}

// VerifySidecar verifies a file against its checksum sidecar, which holds a
// single "<digest>  <filename>" line as written by the release artifacts
// service (and by sha256sum/sha512sum).
func (v *checksumVerifier) VerifySidecar(ctx context.Context, filePath, sidecarPath string) error {
	//nolint:gosec // G304: sidecarPath is operator-provided for verification
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return fmt.Errorf("checksum file is empty: %s", sidecarPath)
	}

	return v.VerifyChecksum(ctx, filePath, fields[0])
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	return v.digest(filePath, sha256.New())
}

func (v *checksumVerifier) digest(filePath string, h hash.Hash) (string, error) {
	//nolint:gosec // G304: File path is operator-provided for checksum verification
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
