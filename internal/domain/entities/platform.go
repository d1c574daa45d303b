// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"runtime"
)

// Platform classifies the packaging target. It is detected once at the call
// site and passed explicitly through the pipeline, never read ambiently.
type Platform string

// Supported platform classifications. Hosts that are neither darwin nor
// windows collapse into PlatformOther: the artifact is still produced, but
// without an icon and without a native bundle.
const (
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformOther   Platform = "other"
)

// DetectPlatform classifies the host operating system. Pure function of the
// ambient environment: repeated calls in one process yield the same value.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformOther
	}
}

// ParsePlatform converts an operator-provided platform string.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformDarwin, PlatformWindows, PlatformOther:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform %q (expected darwin, windows or other)", s)
	}
}

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}
