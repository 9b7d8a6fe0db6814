// Package dotenv reads .env files into an environment overlay.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// Loader turns .env files into entities.Environment overlays. The process
// environment is never modified and always takes precedence.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that defers to the process environment
func NewLoader() *Loader {
	return &Loader{lookupEnv: os.LookupEnv}
}

// Load adds the variables in path to base. Variables already present in the
// process environment are skipped. A missing file is only an error when required.
func (l *Loader) Load(path string, required bool, base entities.Environment) (entities.Environment, []string, error) {
	if path == "" {
		return base, nil, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return base, nil, nil
		}
		return base, nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	applied := make([]string, 0, len(keys))
	out := base
	for _, k := range keys {
		if _, set := l.lookupEnv(k); set {
			continue
		}
		out = out.With(k, vars[k])
		applied = append(applied, k)
	}
	return out, applied, nil
}
