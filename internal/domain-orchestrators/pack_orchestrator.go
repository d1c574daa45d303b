// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/namecards/bindery/internal/domain/entities"
	"github.com/namecards/bindery/internal/domain/interfaces"
	"github.com/namecards/bindery/internal/domain/interfaces/repositories"
	"github.com/namecards/bindery/internal/domain/services"
)

// ModuleDiscovery resolves the hidden-import set for a spec
type ModuleDiscovery interface {
	HiddenImportModules(packages, explicit []string) ([]entities.ModuleFile, error)
}

// ImportAnalyzer performs the analysis stage
type ImportAnalyzer interface {
	Analyze(ctx context.Context, spec *entities.BuildSpec, hidden []entities.ModuleFile) (*entities.Analysis, error)
}

// Archiver performs the archive stage
type Archiver interface {
	ArchiveCode(analysis *entities.Analysis, outPath string) error
	ArchiveAssets(assets []entities.AssetMapping, outPath string) error
}

// Assembler performs the executable assembly stage
type Assembler interface {
	Assemble(spec *entities.BuildSpec, platform entities.Platform, analysis *entities.Analysis,
		codeArchive, assetArchive, buildID, destDir string) (*entities.Artifact, error)
}

// BundleWrapper performs the native bundle wrap stage (macOS only)
type BundleWrapper interface {
	Wrap(spec *entities.BuildSpec, platform entities.Platform, launcherPath, destDir string) (string, error)
}

// ToolProbe checks the packaged application's run-time tool preconditions
type ToolProbe interface {
	Missing(tools []string) []string
}

// PackOrchestrator coordinates the complete packaging workflow: analysis,
// archive, executable assembly and the platform-conditional bundle wrap.
// Every stage writes into a private staging directory; results reach the
// output directory only through a final promotion, so a failed or
// interrupted build leaves the output directory unchanged.
type PackOrchestrator struct {
	specRepo  repositories.SpecRepository
	discovery ModuleDiscovery
	analyzer  ImportAnalyzer
	archiver  Archiver
	assembler Assembler
	wrapper   BundleWrapper
	probe     ToolProbe
	sidecars  *services.ReleaseArtifactsService
	logger    interfaces.Logger
	outputDir string
	workDir   string
}

// PackOrchestratorConfig holds configuration for the orchestrator
type PackOrchestratorConfig struct {
	OutputDir string
	WorkDir   string
}

// NewPackOrchestrator creates a new pack orchestrator
func NewPackOrchestrator(
	specRepo repositories.SpecRepository,
	discovery ModuleDiscovery,
	analyzer ImportAnalyzer,
	archiver Archiver,
	assembler Assembler,
	wrapper BundleWrapper,
	probe ToolProbe,
	sidecars *services.ReleaseArtifactsService,
	logger interfaces.Logger,
	config PackOrchestratorConfig,
) *PackOrchestrator {
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "dist"
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &PackOrchestrator{
		specRepo:  specRepo,
		discovery: discovery,
		analyzer:  analyzer,
		archiver:  archiver,
		assembler: assembler,
		wrapper:   wrapper,
		probe:     probe,
		sidecars:  sidecars,
		logger:    logger,
		outputDir: outputDir,
		workDir:   config.WorkDir,
	}
}

// PackResult contains the result of a packaging run
type PackResult struct {
	Spec             *entities.BuildSpec
	Platform         entities.Platform
	Artifact         *entities.Artifact
	BundlePath       string
	SidecarPaths     []string
	BuildID          string
	MissingTools     []string
	ModuleCount      int
	HiddenImports    int
	AnalysisDuration time.Duration
	TotalDuration    time.Duration
	Success          bool
	Error            error
}

// Pack executes the complete packaging workflow for a named build spec
// against an explicitly provided platform classification.
func (o *PackOrchestrator) Pack(ctx context.Context, specName string, platform entities.Platform) (*PackResult, error) {
	startTime := time.Now()
	result := &PackResult{Platform: platform, BuildID: uuid.NewString()}

	fail := func(err error) (*PackResult, error) {
		result.Error = err
		return result, err
	}

	// Step 1: Load the build spec
	spec, err := o.specRepo.GetSpec(ctx, specName)
	if err != nil {
		return fail(fmt.Errorf("failed to load build spec: %w", err))
	}
	result.Spec = spec
	o.logger.Info("packing", interfaces.F("spec", spec.Name), interfaces.F("platform", platform), interfaces.F("build_id", result.BuildID))

	// Run-time precondition report only: a missing tool on the build host
	// must not fail the build, the artifact may run elsewhere.
	if o.probe != nil && len(spec.Tools) > 0 {
		result.MissingTools = o.probe.Missing(spec.Tools)
		for _, tool := range result.MissingTools {
			o.logger.Warn("required run-time tool not on build host search path", interfaces.F("tool", tool))
		}
	}

	// Step 2: Create the staging directory
	staging, err := os.MkdirTemp(o.workDir, "bindery-stage-")
	if err != nil {
		return fail(fmt.Errorf("failed to create staging directory: %w", err))
	}
	//nolint:errcheck // Best-effort cleanup of staging
	defer os.RemoveAll(staging)

	// Step 3: Resolve the hidden-import set
	hidden, err := o.discovery.HiddenImportModules(spec.HiddenPackages, spec.HiddenImports)
	if err != nil {
		return fail(fmt.Errorf("hidden-import resolution failed: %w", err))
	}

	// Step 4: Analysis
	analysisStart := time.Now()
	analysis, err := o.analyzer.Analyze(ctx, spec, hidden)
	if err != nil {
		return fail(fmt.Errorf("analysis failed: %w", err))
	}
	result.AnalysisDuration = time.Since(analysisStart)
	result.ModuleCount = len(analysis.Modules)
	result.HiddenImports = len(analysis.HiddenImports)
	o.logger.Debug("analysis complete",
		interfaces.F("modules", result.ModuleCount),
		interfaces.F("hidden_imports", result.HiddenImports))

	// Step 5: Archive
	codeArchive := filepath.Join(staging, "code.tar.gz")
	if err := o.archiver.ArchiveCode(analysis, codeArchive); err != nil {
		return fail(fmt.Errorf("archive failed: %w", err))
	}
	assetArchive := filepath.Join(staging, "assets.tar.gz")
	if err := o.archiver.ArchiveAssets(analysis.Assets, assetArchive); err != nil {
		return fail(fmt.Errorf("asset archive failed: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Step 6: Executable assembly
	stagingDist := filepath.Join(staging, "dist")
	artifact, err := o.assembler.Assemble(spec, platform, analysis, codeArchive, assetArchive, result.BuildID, stagingDist)
	if err != nil {
		return fail(fmt.Errorf("assembly failed: %w", err))
	}
	result.Artifact = artifact

	// Step 7: Native bundle wrap, skipped off darwin
	bundlePath, err := o.wrapper.Wrap(spec, platform, artifact.Path, stagingDist)
	if err != nil {
		return fail(fmt.Errorf("bundle wrap failed: %w", err))
	}
	result.BundlePath = bundlePath

	// Step 8: Verification sidecars, generated in staging
	if o.sidecars != nil {
		written, err := o.sidecars.GenerateAll(artifact.Path, spec.Name, spec.Version, platform.String(), result.BuildID)
		if err != nil {
			return fail(fmt.Errorf("sidecar generation failed: %w", err))
		}
		result.SidecarPaths = []string{written.SHA256Path, written.SHA512Path, written.ProvenancePath}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Step 9: Promote staging into the output directory
	if err := o.promote(stagingDist, &result.SidecarPaths, result); err != nil {
		return fail(fmt.Errorf("failed to promote artifacts: %w", err))
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)
	o.logger.Info("packed", interfaces.F("artifact", result.Artifact.Path), interfaces.F("duration", result.TotalDuration))
	return result, nil
}

// promoteSuffix marks entries mid-promotion in the output directory.
const promoteSuffix = ".incoming"

// promote moves every staged entry into the output directory and rewrites
// the paths recorded on the result to their final locations. Promotion runs
// in two phases: everything lands under a temporary name first, then the
// temporary names swap into place with same-directory renames. A failure
// while moving out of staging leaves the previous build's files untouched;
// the only residual window for partial output is the rename loop itself.
func (o *PackOrchestrator) promote(stagingDist string, sidecars *[]string, result *PackResult) error {
	if err := os.MkdirAll(o.outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := os.ReadDir(stagingDist)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	staged := make([]string, 0, len(entries))
	cleanup := func() {
		for _, name := range staged {
			//nolint:errcheck // Best-effort removal of temporary names
			os.RemoveAll(filepath.Join(o.outputDir, name+promoteSuffix))
		}
	}

	for _, entry := range entries {
		src := filepath.Join(stagingDist, entry.Name())
		tmp := filepath.Join(o.outputDir, entry.Name()+promoteSuffix)

		if err := os.RemoveAll(tmp); err != nil {
			cleanup()
			return fmt.Errorf("failed to clear %s: %w", tmp, err)
		}
		if err := moveEntry(src, tmp); err != nil {
			cleanup()
			return fmt.Errorf("failed to stage %s: %w", entry.Name(), err)
		}
		staged = append(staged, entry.Name())
	}

	for _, name := range staged {
		dst := filepath.Join(o.outputDir, name)

		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dst, err)
		}
		if err := os.Rename(filepath.Join(o.outputDir, name+promoteSuffix), dst); err != nil {
			return fmt.Errorf("failed to promote %s: %w", name, err)
		}
	}

	result.Artifact.Path = filepath.Join(o.outputDir, filepath.Base(result.Artifact.Path))
	if result.BundlePath != "" {
		result.BundlePath = filepath.Join(o.outputDir, filepath.Base(result.BundlePath))
	}
	for i, p := range *sidecars {
		(*sidecars)[i] = filepath.Join(o.outputDir, filepath.Base(p))
	}
	return nil
}

// moveEntry renames a file or directory, falling back to a copy when the
// staging and output directories live on different filesystems.
func moveEntry(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyTree(src, dst)
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}

	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	//nolint:gosec // G304: src is a staging path constructed by the pipeline
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: dst is inside the configured output directory
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

// GetPackSummary returns a human-readable summary of the packaging run
func (r *PackResult) GetPackSummary() string {
	if !r.Success {
		return fmt.Sprintf("Packaging failed: %v", r.Error)
	}

	summary := fmt.Sprintf(`Packaging successful!
Spec: %s
Platform: %s
Launcher: %s
Modules: %d (%d hidden imports)
Analysis: %v
Total: %v`,
		r.Spec.Name,
		r.Platform,
		r.Artifact.Path,
		r.ModuleCount,
		r.HiddenImports,
		r.AnalysisDuration,
		r.TotalDuration,
	)

	if r.BundlePath != "" {
		summary += fmt.Sprintf("\nBundle: %s", r.BundlePath)
	}
	if len(r.MissingTools) > 0 {
		summary += fmt.Sprintf("\n\nWarning: run-time tools missing on this host: %v", r.MissingTools)
	}

	return summary
}
