package gateways

import (
	"fmt"
	"os"
	"path/filepath"
)

// SidecarFinder locates the verification sidecars written next to a
// distributable: checksums, signatures and the provenance record.
type SidecarFinder struct{}

// NewSidecarFinder creates a new sidecar finder
func NewSidecarFinder() *SidecarFinder {
	return &SidecarFinder{}
}

// sidecarSuffixes enumerates everything the pipeline may write beside an
// artifact.
var sidecarSuffixes = []string{".sha256", ".sha512", ".asc", ".provenance.json"}

// FindSidecars returns the sidecar files present for an artifact.
func (f *SidecarFinder) FindSidecars(artifactPath string) ([]string, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, fmt.Errorf("artifact does not exist: %s", artifactPath)
	}

	var sidecars []string
	for _, suffix := range sidecarSuffixes {
		candidate := artifactPath + suffix
		if _, err := os.Stat(candidate); err == nil {
			sidecars = append(sidecars, candidate)
		}
	}
	return sidecars, nil
}

// FindArtifacts globs an output directory for launchers produced under a
// given output name, covering both the bare and the .exe form.
func (f *SidecarFinder) FindArtifacts(outputDir, outputName string) ([]string, error) {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("output directory does not exist: %s", outputDir)
	}

	patterns := []string{outputName, outputName + ".exe"}

	var artifacts []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(outputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		artifacts = append(artifacts, matches...)
	}
	return artifacts, nil
}
