package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/namecards/bindery/internal/domain/entities"
)

// SpecRepository implements repositories.SpecRepository using YAML files
type SpecRepository struct {
	specsDir string
	parser   *SpecParser
}

// NewSpecRepository creates a new YAML-based build spec repository
func NewSpecRepository(specsDir string) *SpecRepository {
	return &SpecRepository{
		specsDir: specsDir,
		parser:   NewSpecParser(),
	}
}

// GetSpec retrieves a build spec by name
func (r *SpecRepository) GetSpec(_ context.Context, name string) (*entities.BuildSpec, error) {
	filePath := filepath.Join(r.specsDir, name+".yml")

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("build spec not found: %s", name)
	}

	spec, err := r.parser.ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	// Relative paths inside a spec resolve against the spec file's directory,
	// so a spec can be invoked from anywhere.
	r.anchorPaths(spec)
	return spec, nil
}

// ListSpecs returns all available build specs
func (r *SpecRepository) ListSpecs(_ context.Context) ([]*entities.BuildSpec, error) {
	entries, err := os.ReadDir(r.specsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}

	specs := make([]*entities.BuildSpec, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		filePath := filepath.Join(r.specsDir, entry.Name())
		spec, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", entry.Name(), err)
			continue
		}
		r.anchorPaths(spec)

		specs = append(specs, spec)
	}

	return specs, nil
}

// ListSpecsWithIcon returns specs that carry an icon for a platform
func (r *SpecRepository) ListSpecsWithIcon(ctx context.Context, platform entities.Platform) ([]*entities.BuildSpec, error) {
	all, err := r.ListSpecs(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.BuildSpec, 0)
	for _, spec := range all {
		if spec.Icons.IconFor(platform) != "" {
			filtered = append(filtered, spec)
		}
	}

	return filtered, nil
}

func (r *SpecRepository) anchorPaths(spec *entities.BuildSpec) {
	base := r.specsDir
	spec.EntryPoint = anchor(base, spec.EntryPoint)
	spec.ModulesRoot = anchor(base, spec.ModulesRoot)
	for i, p := range spec.SearchPaths {
		spec.SearchPaths[i] = anchor(base, p)
	}
	for i, a := range spec.Assets {
		spec.Assets[i].Source = anchor(base, a.Source)
	}
	spec.Icons.Darwin = anchor(base, spec.Icons.Darwin)
	spec.Icons.Windows = anchor(base, spec.Icons.Windows)
}

func anchor(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
