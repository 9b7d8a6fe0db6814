package entities

// Host platforms, matching runtime.GOOS
const (
	HostLinux   = "linux"
	HostWindows = "windows"
	HostDarwin  = "darwin"
)

// Toolchain tags understood by the EDK2 build
const (
	ToolchainGCC5       = "GCC5"
	ToolchainClangDwarf = "CLANGDWARF"
	ToolchainClangPDB   = "CLANGPDB"
	ToolchainVS2019     = "VS2019"
	ToolchainVS2022     = "VS2022"
	ToolchainXcode5     = "XCODE5"

	// DefaultToolchainTag is used when no profile matches the host
	DefaultToolchainTag = ToolchainGCC5
)

// ToolchainProfile describes when a toolchain tag is usable
type ToolchainProfile struct {
	Tag      string
	Host     string
	Requires []CapabilityName
	// Extra is an optional additional predicate (e.g. minimum compiler version)
	Extra    func(CapabilitySet) bool
	Priority int
}

// Applies reports whether the profile is usable on host with the given capabilities
func (p ToolchainProfile) Applies(host string, caps CapabilitySet) bool {
	if p.Host != host {
		return false
	}
	for _, req := range p.Requires {
		if !caps.Has(req) {
			return false
		}
	}
	if p.Extra != nil && !p.Extra(caps) {
		return false
	}
	return true
}

// DefaultToolchainProfiles returns the ordered profile list. The order is the
// resolution order; Priority mirrors it for reporting.
func DefaultToolchainProfiles() []ToolchainProfile {
	return []ToolchainProfile{
		{
			Tag:      ToolchainVS2022,
			Host:     HostWindows,
			Requires: []CapabilityName{CapabilityMSVC},
			Extra:    func(c CapabilitySet) bool { return c.VersionAtLeast(CapabilityMSVC, "19.30") },
			Priority: 1,
		},
		{
			Tag:      ToolchainVS2019,
			Host:     HostWindows,
			Requires: []CapabilityName{CapabilityMSVC},
			Extra:    func(c CapabilitySet) bool { return c.VersionAtLeast(CapabilityMSVC, "19.20") },
			Priority: 2,
		},
		{
			Tag:      ToolchainClangPDB,
			Host:     HostWindows,
			Requires: []CapabilityName{CapabilityClang},
			Priority: 3,
		},
		{
			Tag:      ToolchainGCC5,
			Host:     HostLinux,
			Requires: []CapabilityName{CapabilityGCC},
			Priority: 1,
		},
		{
			Tag:      ToolchainClangDwarf,
			Host:     HostLinux,
			Requires: []CapabilityName{CapabilityClang},
			Priority: 2,
		},
		{
			Tag:      ToolchainXcode5,
			Host:     HostDarwin,
			Requires: []CapabilityName{CapabilityClang},
			Priority: 1,
		},
	}
}
