package gateways

import (
	"context"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// Workspace is a prepared EDK2 workspace
type Workspace struct {
	Root          string
	PackageCopied bool
	ConfCreated   []string
}

// WorkspacePreparer locates and prepares the EDK2 workspace
type WorkspacePreparer interface {
	// Resolve picks the workspace root: explicit, then WORKSPACE, then candidates
	Resolve(explicit string) (string, error)
	// Prepare validates the layout and copies in whatever is absent
	Prepare(root string) (Workspace, error)
	// Clean removes the build output directory
	Clean(root string) (bool, error)
}

// BuildRunner invokes the external build once
type BuildRunner interface {
	Invoke(ctx context.Context, cfg entities.BuildConfiguration, env entities.Environment) (int, error)
}

// ArtifactCollector copies build outputs to their destination
type ArtifactCollector interface {
	Collect(outputRoot string, cfg entities.BuildConfiguration, expected []string, dest string) ([]entities.ArtifactOutcome, error)
	Inventory(outputRoot, ext string) ([]string, error)
}

// ArtifactSigner produces detached signatures
type ArtifactSigner interface {
	// SignFile writes a detached signature next to path and returns its location
	SignFile(path string) (string, error)
	// VerifyFile checks the detached signature at sigPath against path
	VerifyFile(path, sigPath string) error
}

// ArtifactBundler packs collected artifacts into one archive
type ArtifactBundler interface {
	Bundle(dir string, cfg entities.BuildConfiguration, artifacts []entities.ArtifactOutcome) (string, error)
}
