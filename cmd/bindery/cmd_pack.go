// Package main provides the bindery CLI for packaging desktop applications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	orchestrators "github.com/namecards/bindery/internal/domain-orchestrators"
	"github.com/namecards/bindery/internal/domain/entities"
	"github.com/namecards/bindery/internal/domain/interfaces"
	"github.com/namecards/bindery/internal/domain/services"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

func runPack(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	var (
		platform  = fs.String("platform", "", "Target platform (darwin, windows, other); default: auto-detect")
		specsDir  = fs.String("specs-dir", "specs", "Path to build specs directory")
		outputDir = fs.String("output-dir", "dist", "Output directory for distributables")
		workDir   = fs.String("work-dir", "", "Staging directory parent (default: system temp)")
		verbose   = fs.Bool("verbose", false, "Verbose output")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery pack <spec> [options]

Package an application described by a build spec into a single
self-contained launcher, wrapped into a native application bundle
on macOS.

Examples:
  bindery pack namecards                        # auto-detect platform
  bindery pack namecards --platform darwin
  bindery pack namecards --output-dir release --verbose

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: build spec name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	specName := fs.Arg(0)

	// Platform detection happens once, here at the call site; the pipeline
	// itself only ever sees the explicit value.
	target := entities.DetectPlatform()
	if *platform != "" {
		parsed, err := entities.ParsePlatform(*platform)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		target = parsed
	} else {
		fmt.Printf("Auto-detected platform: %s\n", target)
	}

	specRepo := yaml.NewSpecRepository(*specsDir)

	spec, err := specRepo.GetSpec(ctx, specName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	discovery := gateways.NewModuleDiscovery(spec.SearchPaths...)
	analyzer := gateways.NewImportAnalyzer(discovery.Discover)
	logger := &interfaces.ConsoleLogger{Verbose: *verbose}

	orchestrator := orchestrators.NewPackOrchestrator(
		specRepo,
		discovery,
		analyzer,
		gateways.NewArchiver(),
		gateways.NewAssembler(),
		gateways.NewBundleWrapper(),
		gateways.NewToolchainProbe(),
		services.NewReleaseArtifactsService(),
		logger,
		orchestrators.PackOrchestratorConfig{
			OutputDir: *outputDir,
			WorkDir:   *workDir,
		},
	)

	result, err := orchestrator.Pack(ctx, specName, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Packaging failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.GetPackSummary())
}
