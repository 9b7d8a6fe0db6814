// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// SettingsRepository defines the interface for loading platform settings
type SettingsRepository interface {
	// GetSettings loads settings by name or file path. An empty ref yields the built-in defaults.
	GetSettings(ctx context.Context, ref string) (entities.PlatformSettings, error)

	// ListSettings returns the names of the settings files available
	ListSettings(ctx context.Context) ([]string, error)
}
