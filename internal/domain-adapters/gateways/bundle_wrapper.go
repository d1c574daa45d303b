package gateways

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/namecards/bindery/internal/domain/entities"
	"howett.net/plist"
)

// BundleWrapper wraps an assembled launcher into a native macOS application
// bundle. On every other platform Wrap is a no-op, not an error.
type BundleWrapper struct{}

// NewBundleWrapper creates a new bundle wrapper
func NewBundleWrapper() *BundleWrapper {
	return &BundleWrapper{}
}

// infoPlist carries the fixed metadata key set attached to the bundle.
type infoPlist struct {
	BundleName        string `plist:"CFBundleName"`
	BundleDisplayName string `plist:"CFBundleDisplayName"`
	BundleIdentifier  string `plist:"CFBundleIdentifier"`
	BundleExecutable  string `plist:"CFBundleExecutable"`
	BundlePackageType string `plist:"CFBundlePackageType"`
	BundleVersion     string `plist:"CFBundleShortVersionString,omitempty"`
	BundleIconFile    string `plist:"CFBundleIconFile,omitempty"`
	HighResolution    bool   `plist:"NSHighResolutionCapable"`
}

// Wrap creates <OutputName>.app next to the launcher and returns its path.
// The launcher itself stays in place; the bundle carries a copy, so the
// output directory holds both an executable and a native bundle on macOS.
func (w *BundleWrapper) Wrap(
	spec *entities.BuildSpec,
	platform entities.Platform,
	launcherPath, destDir string,
) (string, error) {
	if platform != entities.PlatformDarwin {
		return "", nil
	}

	appDir := filepath.Join(destDir, spec.OutputName+".app")
	macOSDir := filepath.Join(appDir, "Contents", "MacOS")
	resourcesDir := filepath.Join(appDir, "Contents", "Resources")

	for _, dir := range []string{macOSDir, resourcesDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create bundle structure: %w", err)
		}
	}

	if err := copyFile(launcherPath, filepath.Join(macOSDir, spec.OutputName), 0o755); err != nil {
		return "", fmt.Errorf("failed to place bundle executable: %w", err)
	}

	info := infoPlist{
		BundleName:        spec.OutputName,
		BundleDisplayName: spec.Bundle.DisplayName,
		BundleIdentifier:  spec.Bundle.Identifier,
		BundleExecutable:  spec.OutputName,
		BundlePackageType: "APPL",
		BundleVersion:     spec.Version,
		HighResolution:    spec.Bundle.HighResolution,
	}

	if icon := spec.Icons.IconFor(platform); icon != "" {
		iconName := filepath.Base(icon)
		if err := copyFile(icon, filepath.Join(resourcesDir, iconName), 0o644); err != nil {
			return "", fmt.Errorf("failed to place bundle icon: %w", err)
		}
		info.BundleIconFile = iconName
	}

	data, err := plist.MarshalIndent(info, plist.XMLFormat, "\t")
	if err != nil {
		return "", fmt.Errorf("failed to encode Info.plist: %w", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "Contents", "Info.plist"), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write Info.plist: %w", err)
	}

	return appDir, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	//nolint:gosec // G304: src comes from the build spec or prior stage
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: dst is a staging path constructed by the pipeline
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		//nolint:errcheck // Best-effort close on error path
		out.Close()
		return err
	}
	return out.Close()
}
