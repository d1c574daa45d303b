package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "pack":
		runPack(ctx, os.Args[2:])
	case "resolve":
		runResolve(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "doctor":
		runDoctor(ctx, os.Args[2:])
	case "deps":
		runDeps(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bindery - Desktop application packager for the Namecards toolchain

Usage:
  bindery <command> [options]

Commands:
  pack     Package an application into a distributable launcher
  resolve  Print the hidden-import closure for a build spec
  list     List available build specs
  doctor   Check external run-time tools on the search path
  deps     Run a spec's dependency-installation hook
  verify   Verify checksums and signatures of a distributable

Use "bindery <command> --help" for more information about a command.`)
}
