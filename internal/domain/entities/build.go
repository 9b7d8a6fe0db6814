package entities

import "path/filepath"

// Build variants (EDK2 "targets")
const (
	VariantDebug   = "DEBUG"
	VariantRelease = "RELEASE"
	VariantNoOpt   = "NOOPT"
)

// BuildConfiguration is fixed once the toolchain has been resolved and is
// passed by value to every later stage.
type BuildConfiguration struct {
	Arch          string
	Variant       string
	ToolchainTag  string
	WorkspaceRoot string
	PackageName   string
	DSCPath       string // workspace-relative, e.g. ACPIPatcherPkg/ACPIPatcherPkg.dsc
	OutputDir     string // workspace-relative build output dir, e.g. Build/ACPIPatcherPkg
	Host          string
	Threads       int
	ExtraOptions  []string
	// Assembler is the nasm executable the probe found; NASM_PREFIX is derived from it
	Assembler string
}

// OutputRoot is the absolute root of the external build's output tree
func (c BuildConfiguration) OutputRoot() string {
	return filepath.Join(c.WorkspaceRoot, filepath.FromSlash(c.OutputDir))
}

// ArtifactDir returns {outputRoot}/{variant}_{toolchain}/{arch}
func (c BuildConfiguration) ArtifactDir(outputRoot string) string {
	return filepath.Join(outputRoot, c.Variant+"_"+c.ToolchainTag, c.Arch)
}

// ArtifactStatus is the outcome of collecting one expected artifact
type ArtifactStatus string

// Artifact outcomes
const (
	ArtifactCopied  ArtifactStatus = "copied"
	ArtifactMissing ArtifactStatus = "missing"
)

// ArtifactOutcome records what happened to one expected artifact
type ArtifactOutcome struct {
	Name        string
	Status      ArtifactStatus
	SourcePath  string
	Destination string
	Size        int64
	SHA256      string
	Signature   string // path of the detached signature, if any
}

// BuildResult is the overall outcome of a build run
type BuildResult struct {
	ExitCode  int
	Artifacts []ArtifactOutcome
	Bundle    string
}

// Success requires a zero exit code only; missing artifacts are warnings
func (r BuildResult) Success() bool {
	return r.ExitCode == 0
}

// Copied returns the artifacts that were copied
func (r BuildResult) Copied() []ArtifactOutcome {
	var out []ArtifactOutcome
	for _, a := range r.Artifacts {
		if a.Status == ArtifactCopied {
			out = append(out, a)
		}
	}
	return out
}

// Missing returns the names of artifacts that were not found
func (r BuildResult) Missing() []string {
	var out []string
	for _, a := range r.Artifacts {
		if a.Status == ArtifactMissing {
			out = append(out, a.Name)
		}
	}
	return out
}
