package gateways

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// BaseToolsBuilderConfig configures BaseToolsBuilder
type BaseToolsBuilderConfig struct {
	Layout BaseToolsLayout
	Env    entities.Environment
	Jobs   int       // parallel make jobs; 0 lets make decide
	Output io.Writer // optional sink for tool build output
}

// BaseToolsBuilder builds EDK2 helper tools with make (nmake on Windows).
// The same commands back every stage of the repair cascade on every host.
type BaseToolsBuilder struct {
	runner gateways.CommandRunner
	cfg    BaseToolsBuilderConfig
}

// NewBaseToolsBuilder creates a builder
func NewBaseToolsBuilder(runner gateways.CommandRunner, cfg BaseToolsBuilderConfig) *BaseToolsBuilder {
	return &BaseToolsBuilder{runner: runner, cfg: cfg}
}

var _ gateways.ToolBuilder = (*BaseToolsBuilder)(nil)

// BuildAll builds the entire helper-tool tree
func (b *BaseToolsBuilder) BuildAll(ctx context.Context) error {
	return b.make(ctx, b.cfg.Layout.SourceDir())
}

// BuildTool builds one tool in its own source directory and installs the
// binary into the bin directory. It returns the path the build produced.
func (b *BaseToolsBuilder) BuildTool(ctx context.Context, tool string) (string, error) {
	srcDir := b.cfg.Layout.ToolSourceDir(tool)
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("no source directory for %s: %s", tool, srcDir)
	}

	if err := b.make(ctx, srcDir); err != nil {
		return "", err
	}

	name := b.cfg.Layout.ExecutableName(tool)
	installed := filepath.Join(b.cfg.Layout.BinDir(), name)

	// Makefiles either drop the binary next to the sources or straight into bin
	produced := filepath.Join(srcDir, name)
	if !IsExecutable(produced) {
		if IsExecutable(installed) {
			return installed, nil
		}
		return "", fmt.Errorf("build of %s succeeded but produced no executable", tool)
	}

	if err := os.MkdirAll(b.cfg.Layout.BinDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create bin directory: %w", err)
	}
	if _, err := copyFile(produced, installed, 0o755); err != nil {
		return "", fmt.Errorf("failed to install %s: %w", tool, err)
	}
	return produced, nil
}

// CleanRebuild cleans then rebuilds the entire helper-tool tree
func (b *BaseToolsBuilder) CleanRebuild(ctx context.Context) error {
	if err := b.make(ctx, b.cfg.Layout.SourceDir(), "clean"); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	return b.make(ctx, b.cfg.Layout.SourceDir())
}

func (b *BaseToolsBuilder) make(ctx context.Context, dir string, targets ...string) error {
	name := "make"
	var args []string
	if b.cfg.Layout.Host == entities.HostWindows {
		name = "nmake"
		args = append(args, "/nologo")
	} else if b.cfg.Jobs > 0 {
		args = append(args, "-j", strconv.Itoa(b.cfg.Jobs))
	}
	args = append(args, targets...)

	env := b.cfg.Env.
		With(entities.EnvEDKToolsPath, b.cfg.Layout.Root)

	res := b.runner.Run(ctx, gateways.Command{
		Name:   name,
		Args:   args,
		Dir:    dir,
		Env:    env,
		Output: b.cfg.Output,
	})
	if res.Error != nil {
		return fmt.Errorf("%s in %s: %w", name, dir, res.Error)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s in %s exited %d: %s", name, dir, res.ExitCode, tail(res.Stderr, 5))
	}
	return nil
}

// tail returns the last n non-empty lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
