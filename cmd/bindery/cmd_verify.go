package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/namecards/bindery/internal/domain-adapters/gateways"
	"github.com/namecards/bindery/internal/external-adapters/gpg"
)

func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		checksumFile = fs.String("checksum", "", "Checksum file to verify against (.sha256 or .sha512)")
		gpgSig       = fs.String("gpg-sig", "", "Detached PGP signature file (.asc or .sig)")
		gpgKey       = fs.String("gpg-key", "", "PGP public key file to verify with")
		verifyAll    = fs.Bool("all", false, "Verify every sidecar found next to the file")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bindery verify <file> [options]

Verify checksums and signatures for a distributable.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Verify checksum
  bindery verify dist/Namecards --checksum dist/Namecards.sha256

  # Verify PGP signature
  bindery verify dist/Namecards --gpg-sig dist/Namecards.asc --gpg-key release-key.asc

  # Verify all sidecars present in the output directory
  bindery verify dist/Namecards --all
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: file path is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	filePath := fs.Arg(0)

	if err := executeVerify(ctx, filePath, *checksumFile, *gpgSig, *gpgKey, *verifyAll); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeVerify(ctx context.Context, filePath, checksumFile, gpgSig, gpgKey string, verifyAll bool) error {
	verifier := gateways.NewChecksumVerifier()
	verified := 0

	if verifyAll {
		finder := gateways.NewSidecarFinder()
		sidecars, err := finder.FindSidecars(filePath)
		if err != nil {
			return err
		}
		for _, sidecar := range sidecars {
			switch {
			case strings.HasSuffix(sidecar, ".sha256"), strings.HasSuffix(sidecar, ".sha512"):
				if err := verifier.VerifySidecar(ctx, filePath, sidecar); err != nil {
					return err
				}
				fmt.Printf("✅ checksum ok: %s\n", sidecar)
				verified++
			case strings.HasSuffix(sidecar, ".asc") && gpgSig == "":
				gpgSig = sidecar
			}
		}
	} else if checksumFile != "" {
		if err := verifier.VerifySidecar(ctx, filePath, checksumFile); err != nil {
			return err
		}
		fmt.Printf("✅ checksum ok: %s\n", checksumFile)
		verified++
	}

	if gpgSig != "" {
		if gpgKey == "" {
			if !verifyAll {
				return fmt.Errorf("--gpg-key is required to verify a signature")
			}
			fmt.Fprintf(os.Stderr, "⚠️  signature %s present but no --gpg-key given, skipping\n", gpgSig)
			gpgSig = ""
		}
	}

	if gpgSig != "" {
		pgpVerifier := gpg.NewVerifier()
		if err := pgpVerifier.ImportKeyFromFile(gpgKey); err != nil {
			return err
		}
		if err := pgpVerifier.VerifyDetached(filePath, gpgSig); err != nil {
			return err
		}
		fmt.Printf("✅ signature ok: %s\n", gpgSig)
		verified++
	}

	if verified == 0 {
		return fmt.Errorf("nothing to verify: pass --checksum, --gpg-sig or --all")
	}

	fmt.Printf("\n✅ %d verification(s) passed for %s\n", verified, filePath)
	return nil
}
