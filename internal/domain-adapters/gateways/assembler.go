package gateways

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/namecards/bindery/internal/domain/entities"
)

// launcherStub is prepended to every artifact so the result is directly
// executable without an installer.
//
//go:embed launcher.sh
var launcherStub []byte

const (
	// trailerMagic identifies a bindery launcher.
	trailerMagic = "NCBNDL1"
	// trailerSize is the fixed byte length of the trailer at the end of
	// every launcher; the stub reads exactly this much to find the TOC.
	trailerSize = 64
)

// Manifest is the application metadata embedded in every launcher.
type Manifest struct {
	Name          string   `json:"name"`
	Version       string   `json:"version,omitempty"`
	Platform      string   `json:"platform"`
	EntryPoint    string   `json:"entrypoint"`
	Console       bool     `json:"console"`
	Icon          string   `json:"icon,omitempty"`
	HiddenImports []string `json:"hidden_imports"`
	Tools         []string `json:"tools,omitempty"`
	BuildID       string   `json:"build_id"`
}

// Section locates one payload region inside the launcher file.
type Section struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

type tableOfContents struct {
	Sections []Section `json:"sections"`
}

// Assembler concatenates the launcher stub, the code archive, the asset
// archive, the platform icon and the manifest into one self-contained
// executable file.
type Assembler struct{}

// NewAssembler creates a new assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble produces the launcher in destDir and returns its artifact record.
// The output name gets an .exe suffix on windows. Only windows launchers
// carry an icon payload section: darwin icons travel in the application
// bundle, and the "other" platform gets no icon at all.
func (a *Assembler) Assemble(
	spec *entities.BuildSpec,
	platform entities.Platform,
	analysis *entities.Analysis,
	codeArchive, assetArchive, buildID, destDir string,
) (*entities.Artifact, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	outName := spec.OutputName
	if platform == entities.PlatformWindows {
		outName += ".exe"
	}
	outPath := filepath.Join(destDir, outName)

	var iconPath string
	if platform == entities.PlatformWindows {
		iconPath = spec.Icons.IconFor(platform)
	}

	manifest := Manifest{
		Name:          spec.Name,
		Version:       spec.Version,
		Platform:      platform.String(),
		EntryPoint:    filepath.Base(spec.EntryPoint),
		Console:       spec.Console,
		HiddenImports: analysis.HiddenImports,
		Tools:         spec.Tools,
		BuildID:       buildID,
	}
	if iconPath != "" {
		manifest.Icon = filepath.Base(iconPath)
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	//nolint:gosec // G304: outPath is a staging path constructed by the pipeline
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create launcher: %w", err)
	}
	//nolint:errcheck // Defer close
	defer out.Close()

	offset, err := out.Write(launcherStub)
	if err != nil {
		return nil, fmt.Errorf("failed to write launcher stub: %w", err)
	}

	pos := int64(offset)
	var sections []Section

	appendFile := func(name, path string) error {
		//nolint:gosec // G304: path is a staging artifact from the prior stage
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s section: %w", name, err)
		}
		//nolint:errcheck // Defer close on read-only file
		defer f.Close()

		n, err := io.Copy(out, f)
		if err != nil {
			return fmt.Errorf("failed to append %s section: %w", name, err)
		}
		sections = append(sections, Section{Name: name, Offset: pos, Size: n})
		pos += n
		return nil
	}

	if err := appendFile("code", codeArchive); err != nil {
		return nil, err
	}
	if err := appendFile("assets", assetArchive); err != nil {
		return nil, err
	}
	if iconPath != "" {
		if err := appendFile("icon", iconPath); err != nil {
			return nil, err
		}
	}

	n, err := out.Write(manifestData)
	if err != nil {
		return nil, fmt.Errorf("failed to append manifest: %w", err)
	}
	sections = append(sections, Section{Name: "manifest", Offset: pos, Size: int64(n)})
	pos += int64(n)

	tocData, err := json.Marshal(tableOfContents{Sections: sections})
	if err != nil {
		return nil, fmt.Errorf("failed to encode table of contents: %w", err)
	}
	if _, err := out.Write(tocData); err != nil {
		return nil, fmt.Errorf("failed to append table of contents: %w", err)
	}

	trailer := fmt.Sprintf("%s %d %d", trailerMagic, pos, len(tocData))
	if len(trailer) >= trailerSize {
		return nil, fmt.Errorf("trailer overflow: %q", trailer)
	}
	padded := trailer + strings.Repeat(" ", trailerSize-len(trailer)-1) + "\n"
	if _, err := out.Write([]byte(padded)); err != nil {
		return nil, fmt.Errorf("failed to write trailer: %w", err)
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize launcher: %w", err)
	}

	return &entities.Artifact{
		Name:     spec.Name,
		Version:  spec.Version,
		Platform: platform,
		Path:     outPath,
		Type:     "launcher",
	}, nil
}

// ReadManifest opens an assembled launcher and returns its embedded manifest
// and section table.
func ReadManifest(path string) (*Manifest, []Section, error) {
	//nolint:gosec // G304: path is an operator-provided artifact to inspect
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open launcher: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat launcher: %w", err)
	}
	if info.Size() < trailerSize {
		return nil, nil, fmt.Errorf("file too small to be a launcher: %s", path)
	}

	trailer := make([]byte, trailerSize)
	if _, err := f.ReadAt(trailer, info.Size()-trailerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read trailer: %w", err)
	}

	fields := strings.Fields(string(bytes.TrimSpace(trailer)))
	if len(fields) != 3 || fields[0] != trailerMagic {
		return nil, nil, fmt.Errorf("not a bindery launcher: %s", path)
	}

	var tocOffset, tocSize int64
	if _, err := fmt.Sscanf(fields[1]+" "+fields[2], "%d %d", &tocOffset, &tocSize); err != nil {
		return nil, nil, fmt.Errorf("malformed trailer: %w", err)
	}

	tocData := make([]byte, tocSize)
	if _, err := f.ReadAt(tocData, tocOffset); err != nil {
		return nil, nil, fmt.Errorf("failed to read table of contents: %w", err)
	}

	var toc tableOfContents
	if err := json.Unmarshal(tocData, &toc); err != nil {
		return nil, nil, fmt.Errorf("malformed table of contents: %w", err)
	}

	var manifest *Manifest
	for _, s := range toc.Sections {
		if s.Name != "manifest" {
			continue
		}
		data := make([]byte, s.Size)
		if _, err := f.ReadAt(data, s.Offset); err != nil {
			return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		manifest = &Manifest{}
		if err := json.Unmarshal(data, manifest); err != nil {
			return nil, nil, fmt.Errorf("malformed manifest: %w", err)
		}
	}
	if manifest == nil {
		return nil, nil, fmt.Errorf("launcher has no manifest section: %s", path)
	}

	return manifest, toc.Sections, nil
}
