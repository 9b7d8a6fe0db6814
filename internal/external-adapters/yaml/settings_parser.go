// Package yaml provides YAML-based platform settings parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// yamlSettings represents the raw YAML structure. Absent fields keep the
// built-in defaults.
type yamlSettings struct {
	Name                   string            `yaml:"name,omitempty"`
	Package                string            `yaml:"package,omitempty"`
	DSC                    string            `yaml:"dsc,omitempty"`
	OutputDir              string            `yaml:"output_dir,omitempty"`
	RequiredFiles          []string          `yaml:"required_files,omitempty"`
	SupportedArchitectures []string          `yaml:"supported_architectures,omitempty"`
	SupportedTargets       []string          `yaml:"supported_targets,omitempty"`
	Tools                  []yamlTool        `yaml:"tools,omitempty"`
	Artifacts              []string          `yaml:"artifacts,omitempty"`
	Probes                 []yamlProbe       `yaml:"probes,omitempty"`
	WorkspaceCandidates    []string          `yaml:"workspace_candidates,omitempty"`
	ConfTemplates          map[string]string `yaml:"conf_templates,omitempty"`
}

type yamlTool struct {
	Name     string `yaml:"name"`
	Required *bool  `yaml:"required,omitempty"`
}

type yamlProbe struct {
	Capability    string   `yaml:"capability"`
	Candidates    []string `yaml:"candidates"`
	Args          []string `yaml:"args,omitempty"`
	Signature     string   `yaml:"signature"`
	VersionRegex  string   `yaml:"version_regex,omitempty"`
	AcceptNonZero bool     `yaml:"accept_nonzero,omitempty"`
}

// SettingsParser parses YAML platform settings files
type SettingsParser struct{}

// NewSettingsParser creates a new YAML parser
func NewSettingsParser() *SettingsParser {
	return &SettingsParser{}
}

// ParseFile parses a YAML settings file
func (p *SettingsParser) ParseFile(filePath string) (entities.PlatformSettings, error) {
	//nolint:gosec // G304: filePath is the settings path given by the operator
	data, err := os.ReadFile(filePath)
	if err != nil {
		return entities.PlatformSettings{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes on top of the built-in defaults
func (p *SettingsParser) Parse(data []byte) (entities.PlatformSettings, error) {
	var raw yamlSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entities.PlatformSettings{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s := entities.DefaultPlatformSettings()
	overrideString(&s.Name, raw.Name)
	overrideString(&s.PackageName, raw.Package)
	overrideString(&s.DSC, raw.DSC)
	overrideString(&s.OutputDir, raw.OutputDir)
	overrideList(&s.RequiredFiles, raw.RequiredFiles)
	overrideList(&s.SupportedArchitectures, raw.SupportedArchitectures)
	overrideList(&s.SupportedTargets, raw.SupportedTargets)
	overrideList(&s.Artifacts, raw.Artifacts)
	overrideList(&s.WorkspaceCandidates, raw.WorkspaceCandidates)

	if raw.Tools != nil {
		s.Tools = convertTools(raw.Tools)
	}
	if raw.Probes != nil {
		probes, err := convertProbes(raw.Probes)
		if err != nil {
			return entities.PlatformSettings{}, err
		}
		s.Probes = probes
	}
	if raw.ConfTemplates != nil {
		s.ConfTemplates = raw.ConfTemplates
	}

	if err := s.Validate(); err != nil {
		return entities.PlatformSettings{}, err
	}
	return s, nil
}

// Marshal renders settings in the format Parse reads
func (p *SettingsParser) Marshal(s entities.PlatformSettings) ([]byte, error) {
	raw := yamlSettings{
		Name:                   s.Name,
		Package:                s.PackageName,
		DSC:                    s.DSC,
		OutputDir:              s.OutputDir,
		RequiredFiles:          s.RequiredFiles,
		SupportedArchitectures: s.SupportedArchitectures,
		SupportedTargets:       s.SupportedTargets,
		Artifacts:              s.Artifacts,
		WorkspaceCandidates:    s.WorkspaceCandidates,
		ConfTemplates:          s.ConfTemplates,
	}
	for _, t := range s.Tools {
		required := t.Required
		raw.Tools = append(raw.Tools, yamlTool{Name: t.Name, Required: &required})
	}
	for _, pr := range s.Probes {
		raw.Probes = append(raw.Probes, yamlProbe{
			Capability:    string(pr.Capability),
			Candidates:    pr.Candidates,
			Args:          pr.Args,
			Signature:     pr.Signature,
			VersionRegex:  pr.VersionRE,
			AcceptNonZero: pr.AcceptNonZero,
		})
	}
	return yaml.Marshal(raw)
}

func convertTools(raw []yamlTool) []entities.ToolSpec {
	tools := make([]entities.ToolSpec, 0, len(raw))
	for _, t := range raw {
		required := true
		if t.Required != nil {
			required = *t.Required
		}
		tools = append(tools, entities.ToolSpec{Name: t.Name, Required: required})
	}
	return tools
}

func convertProbes(raw []yamlProbe) ([]entities.ProbeSpec, error) {
	known := map[string]bool{}
	for _, c := range entities.AllCapabilities() {
		known[string(c)] = true
	}

	probes := make([]entities.ProbeSpec, 0, len(raw))
	for _, pr := range raw {
		if !known[pr.Capability] {
			names := make([]string, 0, len(known))
			for k := range known {
				names = append(names, k)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("unknown capability %q (known: %v)", pr.Capability, names)
		}
		if len(pr.Candidates) == 0 {
			return nil, fmt.Errorf("probe for %s has no candidates", pr.Capability)
		}
		probes = append(probes, entities.ProbeSpec{
			Capability:    entities.CapabilityName(pr.Capability),
			Candidates:    pr.Candidates,
			Args:          pr.Args,
			Signature:     pr.Signature,
			VersionRE:     pr.VersionRegex,
			AcceptNonZero: pr.AcceptNonZero,
		})
	}
	return probes, nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideList(dst *[]string, v []string) {
	if v != nil {
		*dst = v
	}
}
