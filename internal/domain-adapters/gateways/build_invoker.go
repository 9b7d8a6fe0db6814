package gateways

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// BuildInvoker runs the external EDK2 build command once
type BuildInvoker struct {
	runner gateways.CommandRunner
	output io.Writer
}

// NewBuildInvoker creates an invoker. output, when non-nil, receives the
// build's stdout and stderr as they are produced.
func NewBuildInvoker(runner gateways.CommandRunner, output io.Writer) *BuildInvoker {
	return &BuildInvoker{runner: runner, output: output}
}

// Environment returns env extended with everything the EDK2 build reads
func (i *BuildInvoker) Environment(cfg entities.BuildConfiguration, env entities.Environment) entities.Environment {
	layout := NewBaseToolsLayout(cfg.WorkspaceRoot, cfg.Host)
	out := env.WithAll(map[string]string{
		entities.EnvWorkspace:      cfg.WorkspaceRoot,
		entities.EnvEDKToolsPath:   layout.Root,
		entities.EnvConfPath:       filepath.Join(cfg.WorkspaceRoot, "Conf"),
		entities.EnvPythonPath:     layout.PythonDir(),
		entities.EnvToolChainTag:   cfg.ToolchainTag,
		entities.EnvTargetArch:     cfg.Arch,
		entities.EnvTarget:         cfg.Variant,
		entities.EnvActivePlatform: filepath.ToSlash(cfg.DSCPath),
	})
	if _, ok := out.Get(entities.EnvPackagesPath); !ok {
		out = out.With(entities.EnvPackagesPath, cfg.WorkspaceRoot)
	}
	if prefix := nasmPrefix(cfg.Assembler, out); prefix != "" {
		out = out.With(entities.EnvNASMPrefix, prefix)
	}
	return out.WithSearchPath(layout.WrapperDir())
}

// nasmPrefix returns the directory holding the assembler, with a trailing
// separator as the EDK2 tools_def expects. An overlay value always wins.
func nasmPrefix(assembler string, env entities.Environment) string {
	if _, ok := env.Get(entities.EnvNASMPrefix); ok || assembler == "" {
		return ""
	}
	path, err := ResolveExecutable(assembler, env.PathList(pathFromEnv()))
	if err != nil {
		return ""
	}
	return filepath.Dir(path) + string(filepath.Separator)
}

// Command assembles the build command line. When no build wrapper is on the
// search path the Python entry point is run directly.
func (i *BuildInvoker) Command(cfg entities.BuildConfiguration, env entities.Environment) gateways.Command {
	args := []string{
		"-p", filepath.ToSlash(cfg.DSCPath),
		"-a", cfg.Arch,
		"-t", cfg.ToolchainTag,
		"-b", cfg.Variant,
	}
	if cfg.Threads > 0 {
		args = append(args, "-n", strconv.Itoa(cfg.Threads))
	}
	args = append(args, cfg.ExtraOptions...)

	name := "build"
	if _, err := ResolveExecutable(name, env.PathList(pathFromEnv())); err != nil {
		python := "python3"
		if p, ok := env.Get(entities.EnvPythonCommand); ok && p != "" {
			python = p
		}
		layout := NewBaseToolsLayout(cfg.WorkspaceRoot, cfg.Host)
		script := filepath.Join(layout.PythonDir(), "build", "build.py")
		args = append([]string{script}, args...)
		name = python
	}

	return gateways.Command{
		Name:   name,
		Args:   args,
		Dir:    cfg.WorkspaceRoot,
		Env:    env,
		Output: i.output,
	}
}

// Invoke runs the build and returns its exit code. A non-zero exit is
// returned verbatim together with a BuildInvocationFailure; nothing is retried.
func (i *BuildInvoker) Invoke(ctx context.Context, cfg entities.BuildConfiguration, env entities.Environment) (int, error) {
	full := i.Environment(cfg, env)
	cmd := i.Command(cfg, full)

	res := i.runner.Run(ctx, cmd)
	if res.Error != nil {
		return res.ExitCode, &entities.PipelineError{
			Kind:     entities.ErrBuildInvocationFailure,
			Stage:    "build",
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("failed to run %s: %w", cmd.Name, res.Error),
		}
	}
	if res.ExitCode != 0 {
		return res.ExitCode, &entities.PipelineError{
			Kind:     entities.ErrBuildInvocationFailure,
			Stage:    "build",
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("%s exited with code %d", cmd.Name, res.ExitCode),
		}
	}
	return 0, nil
}

var _ gateways.BuildRunner = (*BuildInvoker)(nil)
