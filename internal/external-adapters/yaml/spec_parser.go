// Package yaml provides YAML-based build spec parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"

	"github.com/namecards/bindery/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlSpec represents the raw YAML structure
type yamlSpec struct {
	Name           string      `yaml:"name"`
	Version        string      `yaml:"version"`
	Description    string      `yaml:"description"`
	EntryPoint     string      `yaml:"entrypoint"`
	ModulesRoot    string      `yaml:"modules_root"`
	SearchPaths    []string    `yaml:"search_paths"`
	Assets         []yamlAsset `yaml:"assets"`
	HiddenPackages []string    `yaml:"hidden_packages"`
	HiddenImports  []string    `yaml:"hidden_imports"`
	Icons          yamlIcons   `yaml:"icons"`
	OutputName     string      `yaml:"output_name"`
	Console        *bool       `yaml:"console"`
	Bundle         yamlBundle  `yaml:"bundle"`
	Tools          []string    `yaml:"tools"`
	InstallHook    yamlHook    `yaml:"install_hook"`
}

type yamlAsset struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

type yamlIcons struct {
	Darwin  string `yaml:"darwin"`
	Windows string `yaml:"windows"`
}

type yamlBundle struct {
	DisplayName    string `yaml:"display_name"`
	Identifier     string `yaml:"identifier"`
	HighResolution bool   `yaml:"high_resolution"`
}

type yamlHook struct {
	Script         string `yaml:"script"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

// SpecParser parses YAML build spec files
type SpecParser struct{}

// NewSpecParser creates a new YAML parser
func NewSpecParser() *SpecParser {
	return &SpecParser{}
}

// ParseFile parses a YAML build spec file into a BuildSpec entity
func (p *SpecParser) ParseFile(filePath string) (*entities.BuildSpec, error) {
	//nolint:gosec // G304: filePath is a build spec path from the repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a BuildSpec entity
func (p *SpecParser) Parse(data []byte) (*entities.BuildSpec, error) {
	var ys yamlSpec
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if ys.Name == "" {
		return nil, fmt.Errorf("build spec must have a name")
	}
	if ys.EntryPoint == "" {
		return nil, fmt.Errorf("build spec %s must have an entrypoint", ys.Name)
	}

	spec := &entities.BuildSpec{
		Name:           ys.Name,
		Version:        ys.Version,
		Description:    ys.Description,
		EntryPoint:     ys.EntryPoint,
		ModulesRoot:    ys.ModulesRoot,
		SearchPaths:    ys.SearchPaths,
		Assets:         convertAssets(ys.Assets),
		HiddenPackages: ys.HiddenPackages,
		HiddenImports:  ys.HiddenImports,
		Icons: entities.IconSet{
			Darwin:  ys.Icons.Darwin,
			Windows: ys.Icons.Windows,
		},
		OutputName: ys.OutputName,
		// The target is a GUI-only application: no console unless asked for.
		Console: ys.Console != nil && *ys.Console,
		Bundle: entities.BundleMetadata{
			DisplayName:    ys.Bundle.DisplayName,
			Identifier:     ys.Bundle.Identifier,
			HighResolution: ys.Bundle.HighResolution,
		},
		Tools: ys.Tools,
		InstallHook: entities.InstallHook{
			Script:         ys.InstallHook.Script,
			TimeoutMinutes: ys.InstallHook.TimeoutMinutes,
		},
	}

	if spec.ModulesRoot == "" {
		spec.ModulesRoot = "."
	}
	if spec.OutputName == "" {
		spec.OutputName = spec.Name
	}
	if spec.Bundle.DisplayName == "" {
		spec.Bundle.DisplayName = spec.OutputName
	}

	return spec, nil
}

func convertAssets(ya []yamlAsset) []entities.AssetMapping {
	assets := make([]entities.AssetMapping, 0, len(ya))
	for _, a := range ya {
		dest := a.Dest
		if dest == "" {
			dest = a.Source
		}
		assets = append(assets, entities.AssetMapping{Source: a.Source, Dest: dest})
	}
	return assets
}
