package entities

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// ProbeSpec describes how to detect one capability
type ProbeSpec struct {
	Capability CapabilityName
	Candidates []string // tried in order; first match wins
	Args       []string // version-query arguments
	Signature  string   // regexp the output must match
	VersionRE  string   // regexp with one group capturing the version
	// AcceptNonZero accepts a non-zero exit when the signature matches
	// (MSVC's cl prints its banner and exits 2 without inputs)
	AcceptNonZero bool
}

// PlatformSettings is the concrete configuration of the platform being built.
// It implements interfaces.PlatformSettings.
type PlatformSettings struct {
	Name                   string
	PackageName            string
	DSC                    string // workspace-relative
	OutputDir              string // workspace-relative, matches OUTPUT_DIRECTORY in the DSC
	RequiredFiles          []string
	SupportedArchitectures []string
	SupportedTargets       []string
	Tools                  []ToolSpec
	Artifacts              []string
	Probes                 []ProbeSpec
	WorkspaceCandidates    []string
	ConfTemplates          map[string]string // BaseTools/Conf template -> Conf file
}

// DefaultPlatformSettings returns the built-in ACPIPatcher settings
func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{
		Name:        "ACPIPatcher",
		PackageName: "ACPIPatcherPkg",
		DSC:         "ACPIPatcherPkg/ACPIPatcherPkg.dsc",
		OutputDir:   "Build/ACPIPatcherPkg",
		RequiredFiles: []string{
			"ACPIPatcherPkg/ACPIPatcherPkg.dsc",
			"ACPIPatcherPkg/ACPIPatcher/ACPIPatcher.inf",
		},
		SupportedArchitectures: []string{"IA32", "X64"},
		SupportedTargets:       []string{VariantDebug, VariantRelease, VariantNoOpt},
		Tools: []ToolSpec{
			{Name: "GenFw", Required: true},
			{Name: "GenFfs", Required: true},
			{Name: "GenSec", Required: true},
			{Name: "GenFv", Required: true},
		},
		Artifacts:           []string{"ACPIPatcher.efi", "ACPIPatcherDxe.efi"},
		Probes:              DefaultProbeSpecs(),
		WorkspaceCandidates: []string{"edk2", "temp_edk2", "~/edk2"},
		ConfTemplates: map[string]string{
			"target.template":     "target.txt",
			"tools_def.template":  "tools_def.txt",
			"build_rule.template": "build_rule.txt",
		},
	}
}

// DefaultProbeSpecs returns the probes for interpreter, assembler and compilers
func DefaultProbeSpecs() []ProbeSpec {
	return []ProbeSpec{
		{
			Capability: CapabilityPython,
			Candidates: []string{"python3", "python", "py"},
			Args:       []string{"--version"},
			Signature:  `Python 3\.`,
			VersionRE:  `Python (\d+\.\d+(?:\.\d+)?)`,
		},
		{
			Capability: CapabilityNASM,
			Candidates: []string{"nasm"},
			Args:       []string{"-v"},
			Signature:  `NASM version`,
			VersionRE:  `NASM version (\d+\.\d+(?:\.\d+)?)`,
		},
		{
			Capability: CapabilityGCC,
			Candidates: []string{"gcc"},
			Args:       []string{"--version"},
			Signature:  `(?i)gcc|free software foundation`,
			VersionRE:  `(\d+\.\d+\.\d+)`,
		},
		{
			Capability: CapabilityClang,
			Candidates: []string{"clang"},
			Args:       []string{"--version"},
			Signature:  `clang version`,
			VersionRE:  `clang version (\d+\.\d+\.\d+)`,
		},
		{
			Capability:    CapabilityMSVC,
			Candidates:    []string{"cl"},
			Args:          nil,
			Signature:     `Microsoft \(R\) C/C\+\+`,
			VersionRE:     `Version (\d+\.\d+(?:\.\d+)?)`,
			AcceptNonZero: true,
		},
	}
}

// GetName returns the platform name
func (s PlatformSettings) GetName() string { return s.Name }

// GetPackageName returns the firmware package directory name
func (s PlatformSettings) GetPackageName() string { return s.PackageName }

// GetDSC returns the workspace-relative DSC path
func (s PlatformSettings) GetDSC() string { return s.DSC }

// GetOutputDir returns the workspace-relative build output directory
func (s PlatformSettings) GetOutputDir() string { return s.OutputDir }

// GetRequiredFiles returns workspace-relative files that must exist before building
func (s PlatformSettings) GetRequiredFiles() []string { return s.RequiredFiles }

// GetTools returns the helper tools the build needs
func (s PlatformSettings) GetTools() []ToolSpec { return s.Tools }

// GetArtifacts returns the expected output filenames
func (s PlatformSettings) GetArtifacts() []string { return s.Artifacts }

// GetProbes returns the capability probes
func (s PlatformSettings) GetProbes() []ProbeSpec { return s.Probes }

// GetWorkspaceCandidates returns directories searched for the EDK2 workspace
func (s PlatformSettings) GetWorkspaceCandidates() []string { return s.WorkspaceCandidates }

// GetConfTemplates returns the template -> conf file mapping
func (s PlatformSettings) GetConfTemplates() map[string]string { return s.ConfTemplates }

// ValidateArchitecture rejects architectures not in the supported list
func (s PlatformSettings) ValidateArchitecture(arch string) error {
	return checkSupported("architecture", []string{arch}, s.SupportedArchitectures)
}

// ValidateTarget rejects build variants not in the supported list
func (s PlatformSettings) ValidateTarget(variant string) error {
	return checkSupported("target", []string{variant}, s.SupportedTargets)
}

// Validate checks the settings are usable
func (s PlatformSettings) Validate() error {
	if s.PackageName == "" {
		return fmt.Errorf("settings must have a package name")
	}
	if s.DSC == "" {
		return fmt.Errorf("settings must name a DSC file")
	}
	if path.IsAbs(s.DSC) {
		return fmt.Errorf("dsc must be workspace-relative: %s", s.DSC)
	}
	if len(s.SupportedArchitectures) == 0 || len(s.SupportedTargets) == 0 {
		return fmt.Errorf("settings must list supported architectures and targets")
	}
	seen := map[string]bool{}
	for _, t := range s.Tools {
		if t.Name == "" {
			return fmt.Errorf("tool with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate tool %s", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func checkSupported(what string, requested, supported []string) error {
	allowed := map[string]bool{}
	for _, s := range supported {
		allowed[s] = true
	}
	var unsupported []string
	for _, r := range requested {
		if !allowed[r] {
			unsupported = append(unsupported, r)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return NewPipelineError(ErrInvalidConfiguration, "settings",
			fmt.Errorf("unsupported %s requested: %s", what, strings.Join(unsupported, " ")))
	}
	return nil
}
