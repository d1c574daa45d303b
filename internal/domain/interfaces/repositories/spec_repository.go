// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/namecards/bindery/internal/domain/entities"
)

// SpecRepository defines the interface for accessing build specs
type SpecRepository interface {
	// GetSpec retrieves a build spec by name
	GetSpec(ctx context.Context, name string) (*entities.BuildSpec, error)

	// ListSpecs returns all available build specs
	ListSpecs(ctx context.Context) ([]*entities.BuildSpec, error)

	// ListSpecsWithIcon returns specs that carry an icon for a platform
	ListSpecsWithIcon(ctx context.Context, platform entities.Platform) ([]*entities.BuildSpec, error)
}
