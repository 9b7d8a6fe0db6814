package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/repositories"
)

// SettingsRepository implements repositories.SettingsRepository using YAML files
type SettingsRepository struct {
	settingsDir string
	parser      *SettingsParser
}

// NewSettingsRepository creates a new YAML-based settings repository
func NewSettingsRepository(settingsDir string) *SettingsRepository {
	return &SettingsRepository{
		settingsDir: settingsDir,
		parser:      NewSettingsParser(),
	}
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// GetSettings loads settings. ref is either a path to a YAML file or the
// name of a file in the settings directory; empty means the defaults.
func (r *SettingsRepository) GetSettings(_ context.Context, ref string) (entities.PlatformSettings, error) {
	if ref == "" {
		return entities.DefaultPlatformSettings(), nil
	}

	filePath := ref
	if !isYAML(ref) && !strings.ContainsRune(ref, filepath.Separator) && !strings.ContainsRune(ref, '/') {
		filePath = filepath.Join(r.settingsDir, ref+".yml")
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return entities.PlatformSettings{}, fmt.Errorf("settings not found: %s", ref)
	}

	s, err := r.parser.ParseFile(filePath)
	if err != nil {
		return entities.PlatformSettings{}, fmt.Errorf("invalid settings %s: %w", ref, err)
	}
	return s, nil
}

// ListSettings returns the names of all settings files in the settings directory
func (r *SettingsRepository) ListSettings(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.settingsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings directory: %w", err)
	}

	names := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	sort.Strings(names)
	return names, nil
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}
