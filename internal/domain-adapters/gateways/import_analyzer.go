package gateways

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/namecards/bindery/internal/domain/entities"
)

// ImportAnalyzer implements the analysis stage: it walks the entry script's
// static import graph, merges the hidden-import set, and collects the
// declared asset mappings verbatim. Any unresolvable import is a hard error.
type ImportAnalyzer struct {
	discover DiscoverFunc
}

// NewImportAnalyzer creates an analyzer backed by a module discovery source.
func NewImportAnalyzer(discover DiscoverFunc) *ImportAnalyzer {
	return &ImportAnalyzer{discover: discover}
}

// importPattern matches the two static import statement forms, including
// leading-dot relative names in the from clause.
var importPattern = regexp.MustCompile(`^\s*(?:from\s+(\.[\w.]*|[A-Za-z_][\w.]*)\s+import\s|import\s+([A-Za-z_][\w.,\s]*))`)

// interpreterModules are provided by the runtime and never bundled.
var interpreterModules = map[string]bool{
	"abc": true, "argparse": true, "collections": true, "contextlib": true,
	"copy": true, "dataclasses": true, "datetime": true, "enum": true,
	"functools": true, "io": true, "itertools": true, "json": true,
	"logging": true, "math": true, "os": true, "pathlib": true, "random": true,
	"re": true, "shutil": true, "signal": true, "string": true, "struct": true,
	"subprocess": true, "sys": true, "tempfile": true, "textwrap": true,
	"threading": true, "time": true, "traceback": true, "typing": true,
	"unicodedata": true, "warnings": true, "weakref": true,
}

// Analyze resolves the full code set for a build: the entry script, every
// local module it reaches, third-party packages it imports, and the
// pre-resolved hidden-import modules. Asset sources are validated here so an
// asset error aborts before archive creation.
func (a *ImportAnalyzer) Analyze(ctx context.Context, spec *entities.BuildSpec, hidden []entities.ModuleFile) (*entities.Analysis, error) {
	if _, err := os.Stat(spec.EntryPoint); err != nil {
		return nil, fmt.Errorf("entry script not found: %w", err)
	}

	files := make(map[string]entities.ModuleFile)
	for _, m := range hidden {
		files[m.ArchivePath] = m
	}
	hiddenTops := make(map[string]bool)
	for _, m := range hidden {
		hiddenTops[topLevel(m.Module)] = true
	}

	walker := &importWalker{
		analyzer:   a,
		spec:       spec,
		files:      files,
		hiddenTops: hiddenTops,
		visited:    make(map[string]bool),
	}

	entry := entities.ModuleFile{
		Module:      strings.TrimSuffix(filepath.Base(spec.EntryPoint), ".py"),
		Path:        spec.EntryPoint,
		ArchivePath: filepath.Base(spec.EntryPoint),
	}
	files[entry.ArchivePath] = entry

	if err := walker.walk(ctx, spec.EntryPoint); err != nil {
		return nil, err
	}

	for _, asset := range spec.Assets {
		if _, err := os.Stat(asset.Source); err != nil {
			return nil, fmt.Errorf("declared asset missing: %s: %w", asset.Source, err)
		}
	}

	modules := make([]entities.ModuleFile, 0, len(files))
	for _, m := range files {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ArchivePath < modules[j].ArchivePath })

	names := make([]string, 0, len(hidden))
	for _, m := range hidden {
		names = append(names, m.Module)
	}
	sort.Strings(names)

	return &entities.Analysis{
		Modules:       modules,
		HiddenImports: names,
		Assets:        spec.Assets,
	}, nil
}

// importWalker carries the traversal state for one analysis run.
type importWalker struct {
	analyzer   *ImportAnalyzer
	spec       *entities.BuildSpec
	files      map[string]entities.ModuleFile
	hiddenTops map[string]bool
	visited    map[string]bool
}

func (w *importWalker) walk(ctx context.Context, scriptPath string) error {
	if w.visited[scriptPath] {
		return nil
	}
	w.visited[scriptPath] = true

	if err := ctx.Err(); err != nil {
		return err
	}

	imports, err := scanImports(scriptPath)
	if err != nil {
		return err
	}

	for _, name := range imports {
		if err := w.resolve(ctx, name, scriptPath); err != nil {
			return err
		}
	}
	return nil
}

func (w *importWalker) resolve(ctx context.Context, name, from string) error {
	if strings.HasPrefix(name, ".") {
		return w.resolveRelative(ctx, name, from)
	}

	top := topLevel(name)

	if interpreterModules[top] {
		return nil
	}
	if w.hiddenTops[top] {
		return nil
	}

	// Local module or package under the modules root
	if local, ok := w.locateLocal(top); ok {
		return w.includeLocal(ctx, local)
	}

	// Installed third-party package: embed its whole tree. Plugins it loads
	// dynamically must still be listed as hidden imports by the spec.
	modules, err := w.analyzer.discover(top)
	if err != nil {
		return fmt.Errorf("unresolvable import %q in %s: %w", name, from, err)
	}
	for _, m := range modules {
		if _, ok := w.files[m.ArchivePath]; !ok {
			w.files[m.ArchivePath] = m
		}
	}
	w.hiddenTops[top] = true
	return nil
}

// resolveRelative follows a leading-dot import against the importing file's
// package directory: one dot names the current package, each further dot one
// package up. An unresolvable relative import is a hard error, same as an
// absolute one.
func (w *importWalker) resolveRelative(ctx context.Context, name, from string) error {
	dots := 0
	for dots < len(name) && name[dots] == '.' {
		dots++
	}
	base := filepath.Dir(from)
	for i := 1; i < dots; i++ {
		base = filepath.Dir(base)
	}

	rest := name[dots:]
	if rest == "" {
		return w.includeLocal(ctx, base)
	}

	target := filepath.Join(base, filepath.Join(strings.Split(rest, ".")...))
	if isDirectory(target) {
		return w.includeLocal(ctx, target)
	}
	if _, err := os.Stat(target + ".py"); err == nil {
		return w.includeLocal(ctx, target+".py")
	}
	return fmt.Errorf("unresolvable relative import %q in %s", name, from)
}

func (w *importWalker) locateLocal(top string) (string, bool) {
	dir := filepath.Join(w.spec.ModulesRoot, top)
	if isDirectory(dir) {
		if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err == nil {
			return dir, true
		}
	}
	file := filepath.Join(w.spec.ModulesRoot, top+".py")
	if _, err := os.Stat(file); err == nil {
		return file, true
	}
	return "", false
}

// includeLocal adds a local module file, or every code file of a local
// package tree, then follows their imports in turn. Package directories are
// walked recursively so a dotted import of a nested subpackage cannot leave
// a hole in the bundle.
func (w *importWalker) includeLocal(ctx context.Context, path string) error {
	if !isDirectory(path) {
		return w.includeLocalFile(ctx, path)
	}

	return filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			return nil
		}
		return w.includeLocalFile(ctx, p)
	})
}

func (w *importWalker) includeLocalFile(ctx context.Context, path string) error {
	rel, err := filepath.Rel(w.spec.ModulesRoot, path)
	if err != nil {
		return err
	}
	if strings.HasPrefix(rel, "..") {
		return fmt.Errorf("module %s escapes the modules root", path)
	}
	w.files[filepath.ToSlash(rel)] = entities.ModuleFile{
		Module:      moduleName(rel),
		Path:        path,
		ArchivePath: filepath.ToSlash(rel),
	}
	return w.walk(ctx, path)
}

// scanImports extracts statically declared import names from one script.
func scanImports(path string) ([]string, error) {
	//nolint:gosec // G304: path comes from the import graph walk
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := importPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if m[1] != "" {
			names = append(names, m[1])
			continue
		}
		// "import a, b as c" declares several names on one line
		for _, part := range strings.Split(m[2], ",") {
			name := strings.TrimSpace(part)
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = strings.TrimSpace(name[:idx])
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return names, nil
}

func topLevel(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}
