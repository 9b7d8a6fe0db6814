// Package gateways implements the domain's external-system contracts on top
// of the host operating system.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// CommandRunner executes external commands. The working directory and the
// environment overlay are applied to the child process only; the
// orchestrator's own cwd and env are never changed.
type CommandRunner struct {
	baseEnv func() []string
}

// NewCommandRunner creates a runner that layers overlays on the process environment
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{baseEnv: os.Environ}
}

var _ gateways.CommandRunner = (*CommandRunner)(nil)

// Run executes cmd. Exit codes are reported in the result; Error is only set
// when the command could not be started, timed out or was canceled.
func (r *CommandRunner) Run(ctx context.Context, cmd gateways.Command) gateways.CommandResult {
	start := time.Now()
	result := gateways.CommandResult{}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	base := r.baseEnv()
	env := cmd.Env.Merge(base)

	path, err := ResolveExecutable(cmd.Name, cmd.Env.PathList(envValue(base, "PATH")))
	if err != nil {
		result.Error = err
		result.ExitCode = -1
		result.Duration = time.Since(start)
		return result
	}

	//nolint:gosec // G204: commands are assembled from settings and resolved tool paths
	c := exec.CommandContext(runCtx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = env
	c.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	if cmd.Output != nil {
		c.Stdout = io.MultiWriter(&stdout, cmd.Output)
		c.Stderr = io.MultiWriter(&stderr, cmd.Output)
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err = c.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case runCtx.Err() == context.DeadlineExceeded:
			result.Error = fmt.Errorf("%s timed out after %v", cmd.Name, cmd.Timeout)
			result.ExitCode = -1
		case ctx.Err() != nil:
			result.Error = fmt.Errorf("%s aborted: %w", cmd.Name, ctx.Err())
			result.ExitCode = -1
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			result.Error = err
			result.ExitCode = -1
		}
		return result
	}

	result.ExitCode = 0
	return result
}

// ResolveExecutable finds name in dirs. Names containing a path separator
// are checked directly.
func ResolveExecutable(name string, dirs []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty command name")
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		for _, candidate := range executableNames(name) {
			if IsExecutable(candidate) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("executable not found: %s", name)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, candidate := range executableNames(filepath.Join(dir, name)) {
			if IsExecutable(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("executable %q not found in search path", name)
}

// IsExecutable reports whether path is a regular file the host can execute
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		ext := strings.ToLower(filepath.Ext(path))
		return ext == ".exe" || ext == ".bat" || ext == ".cmd"
	}
	return info.Mode().Perm()&0o111 != 0
}

func executableNames(path string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(path) != "" {
		return []string{path}
	}
	return []string{path + ".exe", path + ".bat", path + ".cmd"}
}

func envValue(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
			return v
		}
	}
	return ""
}

func pathFromEnv() string {
	return os.Getenv("PATH")
}
