package entities

import (
	"os"
	"sort"
	"strings"
)

// Well-known environment variables
const (
	EnvWorkspace      = "WORKSPACE"
	EnvEDKToolsPath   = "EDK_TOOLS_PATH"
	EnvConfPath       = "CONF_PATH"
	EnvPackagesPath   = "PACKAGES_PATH"
	EnvPythonPath     = "PYTHONPATH"
	EnvPythonCommand  = "PYTHON_COMMAND"
	EnvNASMPrefix     = "NASM_PREFIX"
	EnvToolChainTag   = "TOOL_CHAIN_TAG"
	EnvTargetArch     = "TARGET_ARCH"
	EnvTarget         = "TARGET"
	EnvActivePlatform = "ACTIVE_PLATFORM"
	EnvPath           = "PATH"
)

// Environment is an explicit overlay threaded through the pipeline.
// It never touches the process environment; CommandRunner merges it into
// a child's env at invocation time.
type Environment struct {
	vars       map[string]string
	searchPath []string
}

// NewEnvironment creates an empty overlay
func NewEnvironment() Environment {
	return Environment{vars: map[string]string{}}
}

// With returns a copy of e with key set to value
func (e Environment) With(key, value string) Environment {
	out := e.clone()
	out.vars[key] = value
	return out
}

// WithAll returns a copy of e with every entry of vars set
func (e Environment) WithAll(vars map[string]string) Environment {
	out := e.clone()
	for k, v := range vars {
		out.vars[k] = v
	}
	return out
}

// WithSearchPath returns a copy of e with dirs prepended to the search path,
// keeping any dirs already present and dropping duplicates.
func (e Environment) WithSearchPath(dirs ...string) Environment {
	out := e.clone()
	seen := map[string]bool{}
	var merged []string
	for _, d := range append(append([]string{}, dirs...), e.searchPath...) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}
	out.searchPath = merged
	return out
}

// Get returns the overlay value for key
func (e Environment) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// SearchPath returns the directories prepended to PATH
func (e Environment) SearchPath() []string {
	return append([]string(nil), e.searchPath...)
}

// Keys returns the overlay keys in sorted order
func (e Environment) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge applies the overlay on top of base (KEY=VALUE entries) and returns
// the resulting child environment. PATH becomes searchPath + overlay or base PATH.
func (e Environment) Merge(base []string) []string {
	values := map[string]string{}
	order := []string{}
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = v
	}
	for _, k := range e.Keys() {
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = e.vars[k]
	}
	if len(e.searchPath) > 0 {
		parts := append([]string{}, e.searchPath...)
		if p := values[EnvPath]; p != "" {
			parts = append(parts, p)
		}
		if _, seen := values[EnvPath]; !seen {
			order = append(order, EnvPath)
		}
		values[EnvPath] = strings.Join(parts, string(os.PathListSeparator))
	}

	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+values[k])
	}
	return out
}

// PathList returns the effective search path: overlay dirs followed by
// the overlay or base PATH.
func (e Environment) PathList(basePath string) []string {
	dirs := e.SearchPath()
	p := basePath
	if v, ok := e.vars[EnvPath]; ok {
		p = v
	}
	if p != "" {
		dirs = append(dirs, strings.Split(p, string(os.PathListSeparator))...)
	}
	return dirs
}

func (e Environment) clone() Environment {
	out := Environment{vars: make(map[string]string, len(e.vars)+1)}
	for k, v := range e.vars {
		out.vars[k] = v
	}
	out.searchPath = append([]string(nil), e.searchPath...)
	return out
}
