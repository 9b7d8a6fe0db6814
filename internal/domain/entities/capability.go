// Package entities defines core domain models and data structures.
package entities

import (
	"sort"
	"strconv"
	"strings"
)

// CapabilityName identifies a class of host executable the build depends on.
type CapabilityName string

// Known capabilities
const (
	CapabilityPython CapabilityName = "python"
	CapabilityNASM   CapabilityName = "nasm"
	CapabilityGCC    CapabilityName = "gcc"
	CapabilityClang  CapabilityName = "clang"
	CapabilityMSVC   CapabilityName = "msvc"
)

// AllCapabilities lists every capability a probe can target
func AllCapabilities() []CapabilityName {
	return []CapabilityName{CapabilityPython, CapabilityNASM, CapabilityGCC, CapabilityClang, CapabilityMSVC}
}

// Capability is one detected host executable
type Capability struct {
	Name       CapabilityName
	Executable string // the candidate that answered the probe, e.g. "python3"
	Version    string
}

// CapabilitySet holds the capabilities detected during a run.
// It is immutable once built; use NewCapabilitySet.
type CapabilitySet struct {
	caps map[CapabilityName]Capability
}

// NewCapabilitySet copies the given capabilities into a new set.
// Later entries with the same name replace earlier ones.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	m := make(map[CapabilityName]Capability, len(caps))
	for _, c := range caps {
		m[c.Name] = c
	}
	return CapabilitySet{caps: m}
}

// Has reports whether the capability was detected
func (s CapabilitySet) Has(name CapabilityName) bool {
	_, ok := s.caps[name]
	return ok
}

// Get returns the detected capability
func (s CapabilitySet) Get(name CapabilityName) (Capability, bool) {
	c, ok := s.caps[name]
	return c, ok
}

// Executable returns the executable name recorded for a capability, or "".
func (s CapabilitySet) Executable(name CapabilityName) string {
	return s.caps[name].Executable
}

// Names returns the detected capability names in sorted order
func (s CapabilitySet) Names() []CapabilityName {
	names := make([]CapabilityName, 0, len(s.caps))
	for n := range s.caps {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Len returns the number of detected capabilities
func (s CapabilitySet) Len() int {
	return len(s.caps)
}

// VersionAtLeast reports whether the capability is present with a dotted
// version >= min. Non-numeric components compare as zero.
func (s CapabilitySet) VersionAtLeast(name CapabilityName, minVersion string) bool {
	c, ok := s.caps[name]
	if !ok {
		return false
	}
	return CompareVersions(c.Version, minVersion) >= 0
}

// CompareVersions compares two dotted version strings numerically.
// It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}
