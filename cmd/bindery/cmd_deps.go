package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

func runDeps(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("deps", flag.ExitOnError)
	specsDir := fs.String("specs-dir", "specs", "Path to build specs directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery deps <spec>

Run the dependency-installation hook declared by a build spec, e.g. to
populate the vendored module tree the packaging stages introspect.

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

	specRepo := yaml.NewSpecRepository(*specsDir)
	spec, err := specRepo.GetSpec(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	executor := gateways.NewHookExecutor()
	if err := executor.RunInstallHook(ctx, spec); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Dependencies installed for %s\n", spec.Name)
}
