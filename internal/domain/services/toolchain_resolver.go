// Package services contains domain logic that is independent of any external system.
package services

import (
	"github.com/ochairo/fwbuild/internal/domain/entities"
)

// ToolchainResolver maps detected capabilities to a toolchain tag
type ToolchainResolver struct {
	profiles   []entities.ToolchainProfile
	defaultTag string
}

// NewToolchainResolver creates a resolver over an ordered profile list.
// A nil list uses entities.DefaultToolchainProfiles.
func NewToolchainResolver(profiles []entities.ToolchainProfile) *ToolchainResolver {
	if profiles == nil {
		profiles = entities.DefaultToolchainProfiles()
	}
	return &ToolchainResolver{
		profiles:   append([]entities.ToolchainProfile(nil), profiles...),
		defaultTag: entities.DefaultToolchainTag,
	}
}

// Resolution is the outcome of Resolve
type Resolution struct {
	Tag       string
	Override  bool
	Ambiguous bool // no profile matched; Tag is the default
	Profile   *entities.ToolchainProfile
}

// Resolve picks the toolchain tag. A non-empty override is returned verbatim
// without validation. Otherwise the first profile for host whose predicate
// holds wins; if none does, the default tag is returned with Ambiguous set.
func (r *ToolchainResolver) Resolve(caps entities.CapabilitySet, host, override string) Resolution {
	if override != "" {
		return Resolution{Tag: override, Override: true}
	}

	for i := range r.profiles {
		p := r.profiles[i]
		if p.Applies(host, caps) {
			return Resolution{Tag: p.Tag, Profile: &p}
		}
	}

	return Resolution{Tag: r.defaultTag, Ambiguous: true}
}

// ProfilesFor returns the profiles that apply to host, in resolution order
func (r *ToolchainResolver) ProfilesFor(host string) []entities.ToolchainProfile {
	var out []entities.ToolchainProfile
	for _, p := range r.profiles {
		if p.Host == host {
			out = append(out, p)
		}
	}
	return out
}
