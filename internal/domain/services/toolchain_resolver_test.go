package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

func TestToolchainResolver_Resolve(t *testing.T) {
	gcc := entities.Capability{Name: entities.CapabilityGCC, Executable: "gcc", Version: "13.2.0"}
	clang := entities.Capability{Name: entities.CapabilityClang, Executable: "clang", Version: "17.0.6"}
	msvc2022 := entities.Capability{Name: entities.CapabilityMSVC, Executable: "cl", Version: "19.38.33134"}
	msvc2019 := entities.Capability{Name: entities.CapabilityMSVC, Executable: "cl", Version: "19.29.30133"}

	tests := []struct {
		name          string
		caps          entities.CapabilitySet
		host          string
		override      string
		wantTag       string
		wantAmbiguous bool
		wantOverride  bool
	}{
		{
			name:    "linux with gcc",
			caps:    entities.NewCapabilitySet(gcc),
			host:    entities.HostLinux,
			wantTag: entities.ToolchainGCC5,
		},
		{
			name:    "linux prefers gcc over clang",
			caps:    entities.NewCapabilitySet(clang, gcc),
			host:    entities.HostLinux,
			wantTag: entities.ToolchainGCC5,
		},
		{
			name:    "linux with clang only",
			caps:    entities.NewCapabilitySet(clang),
			host:    entities.HostLinux,
			wantTag: entities.ToolchainClangDwarf,
		},
		{
			name:    "windows with recent msvc",
			caps:    entities.NewCapabilitySet(msvc2022),
			host:    entities.HostWindows,
			wantTag: entities.ToolchainVS2022,
		},
		{
			name:    "windows with msvc 2019",
			caps:    entities.NewCapabilitySet(msvc2019),
			host:    entities.HostWindows,
			wantTag: entities.ToolchainVS2019,
		},
		{
			name:    "windows ignores gcc",
			caps:    entities.NewCapabilitySet(gcc, clang),
			host:    entities.HostWindows,
			wantTag: entities.ToolchainClangPDB,
		},
		{
			name:    "darwin with clang",
			caps:    entities.NewCapabilitySet(clang),
			host:    entities.HostDarwin,
			wantTag: entities.ToolchainXcode5,
		},
		{
			name:          "nothing detected falls back to default",
			caps:          entities.NewCapabilitySet(),
			host:          entities.HostLinux,
			wantTag:       entities.DefaultToolchainTag,
			wantAmbiguous: true,
		},
		{
			name:          "unknown host falls back to default",
			caps:          entities.NewCapabilitySet(gcc),
			host:          "plan9",
			wantTag:       entities.DefaultToolchainTag,
			wantAmbiguous: true,
		},
		{
			name:         "override wins over capabilities",
			caps:         entities.NewCapabilitySet(gcc),
			host:         entities.HostLinux,
			override:     "VS2019",
			wantTag:      "VS2019",
			wantOverride: true,
		},
		{
			name:         "override is not validated",
			caps:         entities.NewCapabilitySet(),
			host:         "plan9",
			override:     "MADE_UP",
			wantTag:      "MADE_UP",
			wantOverride: true,
		},
	}

	r := NewToolchainResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.caps, tt.host, tt.override)
			assert.Equal(t, tt.wantTag, got.Tag)
			assert.Equal(t, tt.wantAmbiguous, got.Ambiguous)
			assert.Equal(t, tt.wantOverride, got.Override)
		})
	}
}

func TestToolchainResolver_Deterministic(t *testing.T) {
	r := NewToolchainResolver(nil)
	caps := entities.NewCapabilitySet(
		entities.Capability{Name: entities.CapabilityGCC, Version: "12.1.0"},
		entities.Capability{Name: entities.CapabilityClang, Version: "15.0.0"},
	)

	first := r.Resolve(caps, entities.HostLinux, "")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.Tag, r.Resolve(caps, entities.HostLinux, "").Tag)
	}
}

func TestToolchainResolver_CustomProfiles(t *testing.T) {
	r := NewToolchainResolver([]entities.ToolchainProfile{
		{Tag: "CLANG38", Host: entities.HostLinux, Requires: []entities.CapabilityName{entities.CapabilityClang}},
	})

	got := r.Resolve(entities.NewCapabilitySet(entities.Capability{Name: entities.CapabilityGCC}), entities.HostLinux, "")
	assert.True(t, got.Ambiguous)
	assert.Equal(t, entities.DefaultToolchainTag, got.Tag)

	assert.Len(t, r.ProfilesFor(entities.HostLinux), 1)
	assert.Empty(t, r.ProfilesFor(entities.HostWindows))
}
