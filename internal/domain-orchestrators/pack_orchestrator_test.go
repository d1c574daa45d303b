package orchestrators

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	"github.com/namecards/bindery/internal/domain/entities"
	"github.com/namecards/bindery/internal/domain/interfaces"
	"github.com/namecards/bindery/internal/domain/services"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

// packFixture lays out a minimal project and returns a fully wired
// orchestrator plus its output directory.
func packFixture(t *testing.T) (*PackOrchestrator, string) {
	t.Helper()
	root := t.TempDir()
	specsDir := filepath.Join(root, "specs")

	files := map[string]string{
		"specs/gui.py":                      "import os\nfrom cards import render\nimport pyside6\n",
		"specs/cards/__init__.py":           "",
		"specs/cards/render.py":             "import math\n",
		"specs/vendor/pyside6/__init__.py":  "",
		"specs/vendor/pyside6/widgets.py":   "",
		"specs/etc/openscad/card.scad":      "// template\n",
		"specs/etc/namecards.icns":          "icns",
		"specs/etc/namecards.ico":           "ico",
	}
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	specYAML := `
name: namecards
version: 1.4.0
entrypoint: gui.py
modules_root: .
search_paths:
  - vendor
assets:
  - source: etc
    dest: etc
hidden_packages:
  - pyside6
icons:
  darwin: etc/namecards.icns
  windows: etc/namecards.ico
output_name: Namecards
bundle:
  display_name: Namecards
  identifier: io.namecards.app
  high_resolution: true
tools:
  - bindery-test-tool-that-does-not-exist
`
	if err := os.WriteFile(filepath.Join(specsDir, "namecards.yml"), []byte(specYAML), 0600); err != nil {
		t.Fatal(err)
	}

	repo := yaml.NewSpecRepository(specsDir)
	spec, err := repo.GetSpec(context.Background(), "namecards")
	if err != nil {
		t.Fatalf("Fixture spec does not load: %v", err)
	}

	discovery := gateways.NewModuleDiscovery(spec.SearchPaths...)
	outputDir := filepath.Join(root, "dist")

	o := NewPackOrchestrator(
		repo,
		discovery,
		gateways.NewImportAnalyzer(discovery.Discover),
		gateways.NewArchiver(),
		gateways.NewAssembler(),
		gateways.NewBundleWrapper(),
		gateways.NewToolchainProbe(),
		services.NewReleaseArtifactsService(),
		&interfaces.NoOpLogger{},
		PackOrchestratorConfig{OutputDir: outputDir},
	)
	return o, outputDir
}

// Test a complete packaging run on the neutral platform
func TestPackOrchestrator_Pack(t *testing.T) {
	o, outputDir := packFixture(t)

	result, err := o.Pack(context.Background(), "namecards", entities.PlatformOther)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if !result.Success {
		t.Fatal("Expected success")
	}

	// Launcher promoted into the output directory
	if result.Artifact.Path != filepath.Join(outputDir, "Namecards") {
		t.Errorf("Unexpected artifact path: %s", result.Artifact.Path)
	}
	if _, err := os.Stat(result.Artifact.Path); err != nil {
		t.Fatalf("Launcher missing from output: %v", err)
	}

	// No native bundle off darwin
	if result.BundlePath != "" {
		t.Errorf("Expected no bundle, got: %s", result.BundlePath)
	}

	// Sidecars promoted alongside
	if len(result.SidecarPaths) != 3 {
		t.Fatalf("Expected 3 sidecars, got: %d", len(result.SidecarPaths))
	}
	for _, p := range result.SidecarPaths {
		if filepath.Dir(p) != outputDir {
			t.Errorf("Sidecar not promoted: %s", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Sidecar missing: %v", err)
		}
	}

	// Missing run-time tools warn without failing the build
	if len(result.MissingTools) != 1 {
		t.Errorf("Expected 1 missing tool, got: %v", result.MissingTools)
	}

	// The manifest reflects the analysis
	manifest, _, err := gateways.ReadManifest(result.Artifact.Path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if manifest.Name != "namecards" {
		t.Errorf("Expected name=namecards, got: %s", manifest.Name)
	}
	if manifest.BuildID != result.BuildID {
		t.Errorf("Manifest build ID %s does not match result %s", manifest.BuildID, result.BuildID)
	}
	if len(manifest.HiddenImports) == 0 {
		t.Error("Expected hidden imports in manifest")
	}
	if result.ModuleCount == 0 {
		t.Error("Expected module count on result")
	}
}

// Test windows packaging names the launcher .exe and skips the bundle
func TestPackOrchestrator_Pack_Windows(t *testing.T) {
	o, outputDir := packFixture(t)

	result, err := o.Pack(context.Background(), "namecards", entities.PlatformWindows)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if result.Artifact.Path != filepath.Join(outputDir, "Namecards.exe") {
		t.Errorf("Unexpected artifact path: %s", result.Artifact.Path)
	}
	if result.BundlePath != "" {
		t.Errorf("Expected no bundle on windows, got: %s", result.BundlePath)
	}

	manifest, sections, err := gateways.ReadManifest(result.Artifact.Path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if manifest.Icon != "namecards.ico" {
		t.Errorf("Expected windows icon in manifest, got: %s", manifest.Icon)
	}
	var hasIcon bool
	for _, s := range sections {
		if s.Name == "icon" {
			hasIcon = true
		}
	}
	if !hasIcon {
		t.Error("Expected icon section in windows launcher")
	}
}

// Test darwin packaging produces the native bundle next to the launcher
func TestPackOrchestrator_Pack_Darwin(t *testing.T) {
	o, outputDir := packFixture(t)

	result, err := o.Pack(context.Background(), "namecards", entities.PlatformDarwin)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if result.BundlePath != filepath.Join(outputDir, "Namecards.app") {
		t.Fatalf("Unexpected bundle path: %s", result.BundlePath)
	}
	if _, err := os.Stat(filepath.Join(result.BundlePath, "Contents", "Info.plist")); err != nil {
		t.Errorf("Bundle Info.plist missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.BundlePath, "Contents", "MacOS", "Namecards")); err != nil {
		t.Errorf("Bundle executable missing: %v", err)
	}
	// The bare launcher is still promoted too
	if _, err := os.Stat(filepath.Join(outputDir, "Namecards")); err != nil {
		t.Errorf("Launcher missing next to bundle: %v", err)
	}
}

// Test an unknown spec fails before any output is touched
func TestPackOrchestrator_Pack_UnknownSpec(t *testing.T) {
	o, outputDir := packFixture(t)

	result, err := o.Pack(context.Background(), "ghost", entities.PlatformOther)
	if err == nil {
		t.Fatal("Expected error for unknown spec, got nil")
	}
	if result.Success {
		t.Error("Expected failure result")
	}
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Error("Output directory created despite failure")
	}
}

// Test a failed stage leaves a previous build untouched
func TestPackOrchestrator_Pack_FailureKeepsPreviousOutput(t *testing.T) {
	o, outputDir := packFixture(t)

	if _, err := o.Pack(context.Background(), "namecards", entities.PlatformOther); err != nil {
		t.Fatalf("First pack failed: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(outputDir, "Namecards"))
	if err != nil {
		t.Fatal(err)
	}

	// Break the project so analysis fails
	specsDir := filepath.Dir(outputDir)
	if err := os.Remove(filepath.Join(specsDir, "specs", "gui.py")); err != nil {
		t.Fatal(err)
	}

	result, err := o.Pack(context.Background(), "namecards", entities.PlatformOther)
	if err == nil {
		t.Fatal("Expected error after removing the entry script, got nil")
	}
	if !strings.Contains(err.Error(), "analysis") {
		t.Errorf("Expected analysis failure, got: %v", err)
	}
	if result.Success {
		t.Error("Expected failure result")
	}

	after, err := os.ReadFile(filepath.Join(outputDir, "Namecards"))
	if err != nil {
		t.Fatalf("Previous launcher gone after failed build: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Previous launcher modified by failed build")
	}
}

// Test repacking over an existing output leaves only final entries
func TestPackOrchestrator_Pack_RepackCleanOutput(t *testing.T) {
	o, outputDir := packFixture(t)

	for i := 0; i < 2; i++ {
		if _, err := o.Pack(context.Background(), "namecards", entities.PlatformOther); err != nil {
			t.Fatalf("Pack %d failed: %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{
		"Namecards":                 true,
		"Namecards.sha256":          true,
		"Namecards.sha512":          true,
		"Namecards.provenance.json": true,
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d output entries, got: %d", len(want), len(entries))
	}
	for _, entry := range entries {
		if !want[entry.Name()] {
			t.Errorf("Unexpected output entry: %s", entry.Name())
		}
		if strings.HasSuffix(entry.Name(), ".incoming") {
			t.Errorf("Temporary promotion name left behind: %s", entry.Name())
		}
	}
}

// Test cancellation aborts between stages
func TestPackOrchestrator_Pack_Canceled(t *testing.T) {
	o, _ := packFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Pack(ctx, "namecards", entities.PlatformOther)
	if err == nil {
		t.Fatal("Expected error for canceled context, got nil")
	}
	if result.Success {
		t.Error("Expected failure result")
	}
}

// Test the human-readable summary
func TestPackResult_GetPackSummary(t *testing.T) {
	o, _ := packFixture(t)

	result, err := o.Pack(context.Background(), "namecards", entities.PlatformOther)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	summary := result.GetPackSummary()
	if !strings.Contains(summary, "namecards") {
		t.Errorf("Summary missing spec name: %s", summary)
	}
	if !strings.Contains(summary, "Warning") {
		t.Errorf("Summary missing tool warning: %s", summary)
	}

	failed := &PackResult{Error: os.ErrNotExist}
	if !strings.Contains(failed.GetPackSummary(), "failed") {
		t.Error("Failure summary does not report failure")
	}
}
