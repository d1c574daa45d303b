// Package services holds domain services shared across commands.
package services

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ReleaseArtifactsService generates the verification sidecars distributed
// alongside every launcher.
type ReleaseArtifactsService struct{}

// NewReleaseArtifactsService creates a new release artifacts service
func NewReleaseArtifactsService() *ReleaseArtifactsService {
	return &ReleaseArtifactsService{}
}

// ReleaseArtifacts lists the sidecar paths written for one launcher.
type ReleaseArtifacts struct {
	SHA256Path     string
	SHA512Path     string
	ProvenancePath string
}

// Provenance records how a distributable was produced.
type Provenance struct {
	Builder   string `json:"builder"`
	BuildID   string `json:"build_id"`
	Spec      string `json:"spec"`
	Version   string `json:"version,omitempty"`
	Platform  string `json:"platform"`
	Artifact  string `json:"artifact"`
	CreatedAt string `json:"created_at"`
}

// GenerateAll writes checksum and provenance sidecars next to the launcher.
// Callers point it at the staging copy so sidecars promote atomically with
// the artifact they describe.
func (s *ReleaseArtifactsService) GenerateAll(launcherPath, specName, version, platform, buildID string) (*ReleaseArtifacts, error) {
	artifacts := &ReleaseArtifacts{}

	sha256Path, err := s.generateChecksum(launcherPath, ".sha256", sha256.New())
	if err != nil {
		return nil, fmt.Errorf("failed to generate SHA256: %w", err)
	}
	artifacts.SHA256Path = sha256Path

	sha512Path, err := s.generateChecksum(launcherPath, ".sha512", sha512.New())
	if err != nil {
		return nil, fmt.Errorf("failed to generate SHA512: %w", err)
	}
	artifacts.SHA512Path = sha512Path

	provenancePath, err := s.generateProvenance(launcherPath, specName, version, platform, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate provenance: %w", err)
	}
	artifacts.ProvenancePath = provenancePath

	return artifacts, nil
}

func (s *ReleaseArtifactsService) generateChecksum(filePath, suffix string, h hash.Hash) (string, error) {
	//nolint:gosec // G304: filePath is a staging artifact from the pipeline
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash artifact: %w", err)
	}

	checksumPath := filePath + suffix
	content := fmt.Sprintf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), filepath.Base(filePath))

	if err := os.WriteFile(checksumPath, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum file: %w", err)
	}

	return checksumPath, nil
}

func (s *ReleaseArtifactsService) generateProvenance(filePath, specName, version, platform, buildID string) (string, error) {
	provenancePath := filePath + ".provenance.json"

	record := Provenance{
		Builder:   "bindery",
		BuildID:   buildID,
		Spec:      specName,
		Version:   version,
		Platform:  platform,
		Artifact:  filepath.Base(filePath),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal provenance: %w", err)
	}

	if err := os.WriteFile(provenancePath, append(data, '\n'), 0600); err != nil {
		return "", fmt.Errorf("failed to write provenance file: %w", err)
	}

	return provenancePath, nil
}
