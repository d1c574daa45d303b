package gateways

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/namecards/bindery/internal/domain/entities"
)

// DiscoverFunc resolves a package name to the set of module files belonging
// to it. The pipeline depends on this function type rather than a concrete
// discoverer so tests can substitute a fake discovery source.
type DiscoverFunc func(pkg string) ([]entities.ModuleFile, error)

// ModuleDiscovery enumerates importable submodules of installed packages by
// read-only introspection of the module search paths. It exists because the
// graphics stack loads plugins dynamically: static analysis of the entry
// script cannot see them, so they must be discovered and embedded explicitly.
type ModuleDiscovery struct {
	searchPaths []string
}

// NewModuleDiscovery creates a discoverer over the given search paths.
// Earlier paths shadow later ones, mirroring import resolution order.
func NewModuleDiscovery(searchPaths ...string) *ModuleDiscovery {
	return &ModuleDiscovery{searchPaths: searchPaths}
}

// Discover returns every module file belonging to pkg, recursively.
// The result is sorted by module name and free of duplicates, so resolving
// twice against an unchanged tree yields identical sets.
func (d *ModuleDiscovery) Discover(pkg string) ([]entities.ModuleFile, error) {
	root, base, err := d.locate(pkg)
	if err != nil {
		return nil, err
	}

	// Single-file module
	if !isDirectory(root) {
		return []entities.ModuleFile{{
			Module:      pkg,
			Path:        root,
			ArchivePath: filepath.ToSlash(strings.TrimPrefix(root, base+string(filepath.Separator))),
		}}, nil
	}

	seen := make(map[string]entities.ModuleFile)
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		seen[moduleName(rel)] = entities.ModuleFile{
			Module:      moduleName(rel),
			Path:        path,
			ArchivePath: filepath.ToSlash(rel),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk package %s: %w", pkg, err)
	}

	modules := make([]entities.ModuleFile, 0, len(seen))
	for _, m := range seen {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Module < modules[j].Module })
	return modules, nil
}

// HiddenImportModules unions the recursively discovered submodules of the
// named packages with the explicitly listed modules. A missing package or
// module aborts resolution: an incomplete bundle that fails at application
// launch is worse than a failed build.
func (d *ModuleDiscovery) HiddenImportModules(packages, explicit []string) ([]entities.ModuleFile, error) {
	seen := make(map[string]entities.ModuleFile)

	for _, pkg := range packages {
		modules, err := d.Discover(pkg)
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			seen[m.Module] = m
		}
	}

	for _, name := range explicit {
		if _, ok := seen[name]; ok {
			continue
		}
		modules, err := d.Discover(name)
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			if _, ok := seen[m.Module]; !ok {
				seen[m.Module] = m
			}
		}
	}

	modules := make([]entities.ModuleFile, 0, len(seen))
	for _, m := range seen {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Module < modules[j].Module })
	return modules, nil
}

// locate finds a package or module under the search paths. Dotted names
// resolve to nested directories or files.
func (d *ModuleDiscovery) locate(name string) (path, base string, err error) {
	relPath := filepath.Join(strings.Split(name, ".")...)

	for _, sp := range d.searchPaths {
		candidate := filepath.Join(sp, relPath)
		if isDirectory(candidate) {
			return candidate, sp, nil
		}
		if _, statErr := os.Stat(candidate + ".py"); statErr == nil {
			return candidate + ".py", sp, nil
		}
	}

	return "", "", fmt.Errorf("package %s is not installed under the search paths %v", name, d.searchPaths)
}

// moduleName converts a relative file path to a dotted module name.
// pkg/sub/__init__.py names the package itself: pkg.sub
func moduleName(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".py")
	rel = strings.TrimSuffix(rel, "/__init__")
	return strings.ReplaceAll(rel, "/", ".")
}

// isDirectory checks if a path is a directory
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
