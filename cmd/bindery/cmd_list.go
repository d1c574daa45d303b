package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain/entities"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		specsDir = fs.String("specs-dir", "specs", "Path to build specs directory")
		platform = fs.String("with-icon", "", "Only show specs carrying an icon for a platform (darwin, windows)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery list [options]

List all available build specs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  bindery list
  bindery list --with-icon darwin
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	specRepo := yaml.NewSpecRepository(*specsDir)

	var specs []*entities.BuildSpec
	var err error

	if *platform != "" {
		target, perr := entities.ParsePlatform(*platform)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", perr)
			os.Exit(1)
		}
		specs, err = specRepo.ListSpecsWithIcon(ctx, target)
	} else {
		specs, err = specRepo.ListSpecs(ctx)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing build specs: %v\n", err)
		os.Exit(1)
	}

	if len(specs) == 0 {
		fmt.Println("No build specs found")
		return
	}

	for _, spec := range specs {
		line := spec.Name
		if spec.Version != "" {
			line += " " + spec.Version
		}
		if spec.Description != "" {
			line += " - " + spec.Description
		}
		fmt.Println(line)
	}
}
