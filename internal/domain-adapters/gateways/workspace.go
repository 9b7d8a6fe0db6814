package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// WorkspaceConfig configures WorkspacePreparer
type WorkspaceConfig struct {
	Settings interfaces.PlatformSettings
	Env      entities.Environment
	// ProjectDir holds the firmware package sources and anchors relative candidates
	ProjectDir string
	HomeDir    string
	Logger     interfaces.Logger
}

// WorkspacePreparer finds the EDK2 workspace and makes it buildable
type WorkspacePreparer struct {
	cfg       WorkspaceConfig
	lookupEnv func(string) (string, bool)
}

// NewWorkspacePreparer creates a preparer
func NewWorkspacePreparer(cfg WorkspaceConfig) *WorkspacePreparer {
	if cfg.Logger == nil {
		cfg.Logger = &interfaces.NoOpLogger{}
	}
	if cfg.HomeDir == "" {
		cfg.HomeDir, _ = os.UserHomeDir()
	}
	return &WorkspacePreparer{cfg: cfg, lookupEnv: os.LookupEnv}
}

var _ gateways.WorkspacePreparer = (*WorkspacePreparer)(nil)

// Resolve returns the first existing directory among explicit, WORKSPACE
// (overlay first, then the process env) and the configured candidates.
// An explicit path that does not exist is an error, never a fallback.
func (p *WorkspacePreparer) Resolve(explicit string) (string, error) {
	if explicit != "" {
		dir := p.expand(explicit)
		if !dirExists(dir) {
			return "", entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace",
				fmt.Errorf("workspace %s does not exist", dir))
		}
		return filepath.Abs(dir)
	}

	var tried []string
	var candidates []string
	if ws, ok := p.cfg.Env.Get(entities.EnvWorkspace); ok {
		candidates = append(candidates, ws)
	} else if ws, ok := p.lookupEnv(entities.EnvWorkspace); ok {
		candidates = append(candidates, ws)
	}
	candidates = append(candidates, p.cfg.Settings.GetWorkspaceCandidates()...)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		dir := p.expand(c)
		tried = append(tried, dir)
		if dirExists(dir) {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}

	return "", entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace",
		fmt.Errorf("no EDK2 workspace found (tried: %s)", strings.Join(tried, ", ")))
}

// Prepare checks the workspace layout, copies the package and Conf files in
// when absent and verifies the required files. Existing files are never
// overwritten.
func (p *WorkspacePreparer) Prepare(root string) (gateways.Workspace, error) {
	ws := gateways.Workspace{Root: root}

	if !dirExists(filepath.Join(root, "BaseTools")) {
		return ws, entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace",
			fmt.Errorf("BaseTools not found in %s", root))
	}

	pkg := p.cfg.Settings.GetPackageName()
	if pkg != "" && p.cfg.ProjectDir != "" {
		src := filepath.Join(p.cfg.ProjectDir, pkg)
		dst := filepath.Join(root, pkg)
		if dirExists(src) && !samePath(src, dst) {
			copied, err := copyTreeIfAbsent(src, dst)
			if err != nil {
				return ws, entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace", err)
			}
			if copied {
				p.cfg.Logger.Info("Copied package into workspace", interfaces.F("package", pkg), interfaces.F("workspace", root))
			}
			ws.PackageCopied = copied
		}
	}

	created, err := p.copyConfTemplates(root)
	if err != nil {
		return ws, entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace", err)
	}
	ws.ConfCreated = created

	var missing []string
	for _, f := range p.cfg.Settings.GetRequiredFiles() {
		if !fileExists(filepath.Join(root, filepath.FromSlash(f))) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return ws, entities.NewPipelineError(entities.ErrEnvironmentUnavailable, "workspace",
			fmt.Errorf("required files missing: %s", strings.Join(missing, ", ")))
	}

	return ws, nil
}

// Clean removes the build output directory. It reports whether anything was removed.
func (p *WorkspacePreparer) Clean(root string) (bool, error) {
	out := p.cfg.Settings.GetOutputDir()
	if out == "" {
		return false, fmt.Errorf("no output directory configured")
	}
	dir := filepath.Join(root, filepath.FromSlash(out))
	if !dirExists(dir) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	p.cfg.Logger.Info("Removed build output", interfaces.F("path", dir))
	return true, nil
}

func (p *WorkspacePreparer) copyConfTemplates(root string) ([]string, error) {
	templates := p.cfg.Settings.GetConfTemplates()
	if len(templates) == 0 {
		return nil, nil
	}

	srcDir := NewBaseToolsLayout(root, "").ConfDir()
	confDir := filepath.Join(root, "Conf")
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create Conf: %w", err)
	}

	names := make([]string, 0, len(templates))
	for tmpl := range templates {
		names = append(names, tmpl)
	}
	sort.Strings(names)

	var created []string
	for _, tmpl := range names {
		dst := filepath.Join(confDir, templates[tmpl])
		if fileExists(dst) {
			continue
		}
		src := filepath.Join(srcDir, tmpl)
		if !fileExists(src) {
			p.cfg.Logger.Warn("Conf template not found", interfaces.F("template", src))
			continue
		}
		if _, err := copyFile(src, dst, 0o644); err != nil {
			return created, fmt.Errorf("failed to copy %s: %w", tmpl, err)
		}
		created = append(created, templates[tmpl])
	}
	return created, nil
}

func (p *WorkspacePreparer) expand(dir string) string {
	if dir == "~" {
		return p.cfg.HomeDir
	}
	if strings.HasPrefix(dir, "~/") {
		return filepath.Join(p.cfg.HomeDir, dir[2:])
	}
	if !filepath.IsAbs(dir) && p.cfg.ProjectDir != "" {
		return filepath.Join(p.cfg.ProjectDir, dir)
	}
	return dir
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
