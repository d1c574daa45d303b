package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	"github.com/namecards/bindery/internal/external-adapters/yaml"
)

func runResolve(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var (
		specsDir = fs.String("specs-dir", "specs", "Path to build specs directory")
		verbose  = fs.Bool("verbose", false, "Also print the source file of each module")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery resolve <spec> [options]

Print the hidden-import closure for a build spec: every dynamically
loaded module that will be embedded because static analysis of the
entry script cannot discover it.

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

	discovery := gateways.NewModuleDiscovery(spec.SearchPaths...)
	modules, err := discovery.HiddenImportModules(spec.HiddenPackages, spec.HiddenImports)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, m := range modules {
		if *verbose {
			fmt.Printf("%s\t%s\n", m.Module, m.Path)
		} else {
			fmt.Println(m.Module)
		}
	}
	fmt.Fprintf(os.Stderr, "\n%d hidden imports\n", len(modules))
}
