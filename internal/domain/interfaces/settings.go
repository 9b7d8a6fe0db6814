package interfaces

import "github.com/ochairo/fwbuild/internal/domain/entities"

// PlatformSettings is the fixed set of capabilities every platform
// configuration provides to the build stages.
type PlatformSettings interface {
	GetName() string
	GetPackageName() string
	GetDSC() string
	GetOutputDir() string
	GetRequiredFiles() []string
	GetTools() []entities.ToolSpec
	GetArtifacts() []string
	GetProbes() []entities.ProbeSpec
	GetWorkspaceCandidates() []string
	GetConfTemplates() map[string]string

	ValidateArchitecture(arch string) error
	ValidateTarget(variant string) error
}

var _ PlatformSettings = entities.PlatformSettings{}
