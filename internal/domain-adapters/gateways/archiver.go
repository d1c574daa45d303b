package gateways

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/namecards/bindery/internal/domain/entities"
)

// Archiver serializes code and asset trees into compressed tar archives.
// Archives are byte-for-byte deterministic for identical inputs: entries are
// written in sorted order with fixed ownership, modes and timestamps, so two
// builds of the same tree produce the same bytes. Reproducible archives are a
// correctness property for distribution trust, not an optimization.
type Archiver struct{}

// NewArchiver creates a new archiver
func NewArchiver() *Archiver {
	return &Archiver{}
}

// archiveEpoch is the fixed timestamp stamped on every archive entry.
var archiveEpoch = time.Unix(0, 0).UTC()

// ArchiveCode writes all pure-code files of an analysis into one tar.gz.
func (a *Archiver) ArchiveCode(analysis *entities.Analysis, outPath string) error {
	entries := make([]archiveEntry, 0, len(analysis.Modules))
	for _, m := range analysis.Modules {
		entries = append(entries, archiveEntry{name: m.ArchivePath, path: m.Path})
	}
	return a.write(outPath, entries)
}

// ArchiveAssets writes the declared asset mappings into a tar.gz, copied
// verbatim: a mapping's source file or directory lands under its destination
// path unchanged.
func (a *Archiver) ArchiveAssets(assets []entities.AssetMapping, outPath string) error {
	var entries []archiveEntry

	for _, asset := range assets {
		info, err := os.Stat(asset.Source)
		if err != nil {
			return fmt.Errorf("declared asset missing: %s: %w", asset.Source, err)
		}

		if !info.IsDir() {
			entries = append(entries, archiveEntry{name: filepath.ToSlash(asset.Dest), path: asset.Source})
			continue
		}

		err = filepath.WalkDir(asset.Source, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(asset.Source, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(filepath.Join(asset.Dest, rel))
			entries = append(entries, archiveEntry{name: name, path: path})
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk asset %s: %w", asset.Source, err)
		}
	}

	return a.write(outPath, entries)
}

type archiveEntry struct {
	name string // slash-separated name inside the archive
	path string // location on disk
}

func (a *Archiver) write(outPath string, entries []archiveEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	// Collapse duplicates; later mappings shadow earlier ones at parse time,
	// identical names here always refer to the same file.
	deduped := entries[:0]
	var prev string
	for _, e := range entries {
		if e.name == prev {
			continue
		}
		deduped = append(deduped, e)
		prev = e.name
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	//nolint:gosec // G304: outPath is a staging path constructed by the pipeline
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, e := range deduped {
		if err := a.writeEntry(tarWriter, e); err != nil {
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return file.Close()
}

func (a *Archiver) writeEntry(tw *tar.Writer, e archiveEntry) error {
	info, err := os.Stat(e.path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", e.path, err)
	}

	// Fixed header fields keep the stream independent of build order, host
	// user and file times.
	header := &tar.Header{
		Name:    e.name,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: archiveEpoch,
		Format:  tar.FormatUSTAR,
	}
	if strings.HasSuffix(e.name, ".sh") || info.Mode()&0o100 != 0 {
		header.Mode = 0o755
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", e.name, err)
	}

	//nolint:gosec // G304: e.path comes from the analysis stage
	f, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", e.path, err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", e.name, err)
	}
	return nil
}
