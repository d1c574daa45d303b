package gateways

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/namecards/bindery/internal/domain/entities"
)

func writeScript(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// Test the full analysis: entry, local closure, hidden imports, assets
func TestImportAnalyzer_Analyze(t *testing.T) {
	root := t.TempDir()
	site := t.TempDir()

	writeScript(t, filepath.Join(root, "gui.py"), `
import os
import sys, json
from cards import render
import pyside6

render.run()
`)
	writeScript(t, filepath.Join(root, "cards", "__init__.py"), "")
	writeScript(t, filepath.Join(root, "cards", "render.py"), "import math\nfrom cards import shapes\n")
	writeScript(t, filepath.Join(root, "cards", "shapes.py"), "import struct\n")
	writeTree(t, site, "pyside6/__init__.py", "pyside6/widgets.py")

	if err := os.MkdirAll(filepath.Join(root, "etc"), 0750); err != nil {
		t.Fatal(err)
	}

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
		Assets:      []entities.AssetMapping{{Source: filepath.Join(root, "etc"), Dest: "etc"}},
	}

	discovery := NewModuleDiscovery(site)
	hidden, err := discovery.HiddenImportModules([]string{"pyside6"}, nil)
	if err != nil {
		t.Fatalf("Hidden-import resolution failed: %v", err)
	}

	analyzer := NewImportAnalyzer(discovery.Discover)
	analysis, err := analyzer.Analyze(context.Background(), spec, hidden)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var paths []string
	for _, m := range analysis.Modules {
		paths = append(paths, m.ArchivePath)
	}
	want := []string{
		"cards/__init__.py",
		"cards/render.py",
		"cards/shapes.py",
		"gui.py",
		"pyside6/__init__.py",
		"pyside6/widgets.py",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Analyze modules = %v, want %v", paths, want)
	}

	wantHidden := []string{"pyside6", "pyside6.widgets"}
	if !reflect.DeepEqual(analysis.HiddenImports, wantHidden) {
		t.Errorf("HiddenImports = %v, want %v", analysis.HiddenImports, wantHidden)
	}

	if len(analysis.Assets) != 1 || analysis.Assets[0].Dest != "etc" {
		t.Errorf("Assets not carried verbatim: %v", analysis.Assets)
	}
}

// Test a third-party import found under the search paths is embedded whole
func TestImportAnalyzer_Analyze_ThirdPartyImport(t *testing.T) {
	root := t.TempDir()
	site := t.TempDir()

	writeScript(t, filepath.Join(root, "gui.py"), "import pyqtgraph\n")
	writeTree(t, site, "pyqtgraph/__init__.py", "pyqtgraph/plot.py")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
	}

	discovery := NewModuleDiscovery(site)
	analyzer := NewImportAnalyzer(discovery.Discover)
	analysis, err := analyzer.Analyze(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var paths []string
	for _, m := range analysis.Modules {
		paths = append(paths, m.ArchivePath)
	}
	want := []string{"gui.py", "pyqtgraph/__init__.py", "pyqtgraph/plot.py"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Analyze modules = %v, want %v", paths, want)
	}
}

// Test a dotted import of a nested local subpackage embeds the whole tree
func TestImportAnalyzer_Analyze_NestedLocalPackage(t *testing.T) {
	root := t.TempDir()

	writeScript(t, filepath.Join(root, "gui.py"), "from cards.sub import mod\n")
	writeScript(t, filepath.Join(root, "cards", "__init__.py"), "")
	writeScript(t, filepath.Join(root, "cards", "sub", "__init__.py"), "")
	writeScript(t, filepath.Join(root, "cards", "sub", "mod.py"), "import os\n")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery().Discover)
	analysis, err := analyzer.Analyze(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var paths []string
	for _, m := range analysis.Modules {
		paths = append(paths, m.ArchivePath)
	}
	want := []string{
		"cards/__init__.py",
		"cards/sub/__init__.py",
		"cards/sub/mod.py",
		"gui.py",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Analyze modules = %v, want %v", paths, want)
	}
}

// Test relative imports resolve against the importing file's package
func TestImportAnalyzer_Analyze_RelativeImports(t *testing.T) {
	root := t.TempDir()

	writeScript(t, filepath.Join(root, "gui.py"), "from .helpers import setup\n")
	writeScript(t, filepath.Join(root, "helpers.py"), "import os\n")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery().Discover)
	analysis, err := analyzer.Analyze(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var paths []string
	for _, m := range analysis.Modules {
		paths = append(paths, m.ArchivePath)
	}
	want := []string{"gui.py", "helpers.py"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Analyze modules = %v, want %v", paths, want)
	}
}

// Test an unresolvable relative import aborts analysis
func TestImportAnalyzer_Analyze_UnresolvableRelativeImport(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "gui.py"), "from .ghost import x\n")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery().Discover)
	if _, err := analyzer.Analyze(context.Background(), spec, nil); err == nil {
		t.Error("Expected error for unresolvable relative import, got nil")
	}
}

// Test an unresolvable import aborts analysis
func TestImportAnalyzer_Analyze_UnresolvableImport(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "gui.py"), "import ghostlib\n")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery(t.TempDir()).Discover)
	if _, err := analyzer.Analyze(context.Background(), spec, nil); err == nil {
		t.Error("Expected error for unresolvable import, got nil")
	}
}

// Test a declared asset that does not exist aborts analysis
func TestImportAnalyzer_Analyze_MissingAsset(t *testing.T) {
	root := t.TempDir()
	writeScript(t, filepath.Join(root, "gui.py"), "import os\n")

	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(root, "gui.py"),
		ModulesRoot: root,
		Assets:      []entities.AssetMapping{{Source: filepath.Join(root, "missing"), Dest: "etc"}},
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery().Discover)
	if _, err := analyzer.Analyze(context.Background(), spec, nil); err == nil {
		t.Error("Expected error for missing asset, got nil")
	}
}

// Test a missing entry script aborts analysis
func TestImportAnalyzer_Analyze_MissingEntry(t *testing.T) {
	spec := &entities.BuildSpec{
		Name:        "cards",
		EntryPoint:  filepath.Join(t.TempDir(), "gui.py"),
		ModulesRoot: ".",
	}

	analyzer := NewImportAnalyzer(NewModuleDiscovery().Discover)
	if _, err := analyzer.Analyze(context.Background(), spec, nil); err == nil {
		t.Error("Expected error for missing entry script, got nil")
	}
}

// Test import statement scanning forms
func TestScanImports(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "m.py")
	writeScript(t, path, `
import os
import sys, json
import numpy as np
from cards.shapes import rounded
from .helpers import setup
from . import pack
# import commented_out
x = "import not_a_statement"
`)

	names, err := scanImports(path)
	if err != nil {
		t.Fatalf("scanImports failed: %v", err)
	}

	want := []string{"os", "sys", "json", "numpy", "cards.shapes", ".helpers", "."}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("scanImports = %v, want %v", names, want)
	}
}
