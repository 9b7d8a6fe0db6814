package gateways

import (
	"os"
	"path/filepath"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// BaseToolsLayout describes where helper tools live inside an EDK2 BaseTools tree
type BaseToolsLayout struct {
	Root string // <workspace>/BaseTools
	Host string
}

// NewBaseToolsLayout creates the layout for a workspace
func NewBaseToolsLayout(workspace, host string) BaseToolsLayout {
	return BaseToolsLayout{Root: filepath.Join(workspace, "BaseTools"), Host: host}
}

// SourceDir is the root of the C helper-tool sources
func (l BaseToolsLayout) SourceDir() string {
	return filepath.Join(l.Root, "Source", "C")
}

// ToolSourceDir is the source directory of one tool
func (l BaseToolsLayout) ToolSourceDir(tool string) string {
	return filepath.Join(l.SourceDir(), tool)
}

// BinDir is where built tools are installed
func (l BaseToolsLayout) BinDir() string {
	if l.Host == entities.HostWindows {
		return filepath.Join(l.Root, "Bin", "Win32")
	}
	return filepath.Join(l.SourceDir(), "bin")
}

// WrapperDir holds the BaseTools command wrappers (build, GenFds, ...)
func (l BaseToolsLayout) WrapperDir() string {
	if l.Host == entities.HostWindows {
		return filepath.Join(l.Root, "BinWrappers", "WindowsLike")
	}
	return filepath.Join(l.Root, "BinWrappers", "PosixLike")
}

// ConfDir holds the configuration templates
func (l BaseToolsLayout) ConfDir() string {
	return filepath.Join(l.Root, "Conf")
}

// PythonDir is the root of the Python build tools
func (l BaseToolsLayout) PythonDir() string {
	return filepath.Join(l.Root, "Source", "Python")
}

// ExecutableName returns the on-disk file name of tool for the host
func (l BaseToolsLayout) ExecutableName(tool string) string {
	if l.Host == entities.HostWindows {
		return tool + ".exe"
	}
	return tool
}

// ToolScanner locates helper tools in the canonical bin directory, the
// tool's own source directory and finally the process search path.
type ToolScanner struct {
	layout   BaseToolsLayout
	pathDirs []string
}

// NewToolScanner creates a scanner. pathDirs are searched last.
func NewToolScanner(layout BaseToolsLayout, pathDirs []string) *ToolScanner {
	return &ToolScanner{layout: layout, pathDirs: pathDirs}
}

// NewToolScannerFromEnv creates a scanner that also searches the effective PATH of env
func NewToolScannerFromEnv(layout BaseToolsLayout, env entities.Environment) *ToolScanner {
	return NewToolScanner(layout, env.PathList(os.Getenv("PATH")))
}

var _ gateways.ToolLocator = (*ToolScanner)(nil)

// CanonicalDirs returns the install directories in priority order
func (s *ToolScanner) CanonicalDirs() []string {
	return []string{s.layout.BinDir()}
}

// Locate returns the first executable for tool
func (s *ToolScanner) Locate(tool string) (string, bool) {
	name := s.layout.ExecutableName(tool)

	dirs := append([]string{}, s.CanonicalDirs()...)
	dirs = append(dirs, s.layout.ToolSourceDir(tool))
	dirs = append(dirs, s.pathDirs...)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if IsExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}
