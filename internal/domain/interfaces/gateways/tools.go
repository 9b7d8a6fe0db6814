// Package gateways defines the contracts for external systems the domain drives.
package gateways

import (
	"context"
	"io"
	"time"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// Command is a single external invocation
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     entities.Environment
	Timeout time.Duration // zero blocks until the command exits
	// Output, when set, receives stdout and stderr as they are produced
	Output io.Writer
}

// CommandResult is the outcome of a Command
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error // start failure, timeout or cancellation; nil for a clean non-zero exit
}

// Success reports whether the command ran and exited zero
func (r CommandResult) Success() bool {
	return r.Error == nil && r.ExitCode == 0
}

// CommandRunner runs external commands. It is the only place where a
// child process environment and working directory are applied.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) CommandResult
}

// ToolLocator finds helper tool executables
type ToolLocator interface {
	// Locate returns the executable path of tool, or ok=false
	Locate(tool string) (path string, ok bool)
	// CanonicalDirs returns the directories tools are installed into, in priority order
	CanonicalDirs() []string
}

// ToolBuilder builds helper tools from source
type ToolBuilder interface {
	// BuildAll builds the entire helper-tool tree
	BuildAll(ctx context.Context) error
	// BuildTool builds one tool in its own source directory, installs the
	// produced binary into the canonical directory and returns the produced path
	BuildTool(ctx context.Context, tool string) (string, error)
	// CleanRebuild cleans and rebuilds the entire helper-tool tree
	CleanRebuild(ctx context.Context) error
}

// CapabilityProber detects host executables
type CapabilityProber interface {
	Probe(ctx context.Context, specs []entities.ProbeSpec) entities.CapabilitySet
}
