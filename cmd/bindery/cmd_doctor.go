package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

func runDoctor(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	specsDir := fs.String("specs-dir", "specs", "Path to build specs directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery doctor <spec>

Check that the external tools the packaged application shells out to at
run time resolve on the current search path. The application inherits
the host PATH unchanged, so what this reports is what the application
will see.

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

	if len(spec.Tools) == 0 {
		fmt.Printf("%s declares no external run-time tools\n", spec.Name)
		return
	}

	probe := gateways.NewToolchainProbe()
	missing := 0
	for _, status := range probe.Probe(spec.Tools) {
		if status.Found {
			fmt.Printf("✅ %s (%s)\n", status.Name, status.Path)
		} else {
			fmt.Printf("❌ %s not found on PATH\n", status.Name)
			missing++
		}
	}

	if missing > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d required tools missing; generation features will not work until they are installed\n",
			missing, len(spec.Tools))
		os.Exit(1)
	}
}
