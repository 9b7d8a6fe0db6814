package gateways

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

func TestEnvironmentProbe_Probe(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fakepython", `echo "Python 3.11.4"`)
	writeScript(t, dir, "oldpython", `echo "Python 2.7.18"`)
	writeScript(t, dir, "fakenasm", `echo "NASM version 2.16.01 compiled on Jan  1 2024"`)
	writeScript(t, dir, "fakecl", "echo 'Microsoft (R) C/C++ Optimizing Compiler Version 19.38.33130 for x64' >&2\nexit 2")

	specs := []entities.ProbeSpec{
		{
			Capability: entities.CapabilityPython,
			Candidates: []string{"fwbuild-missing-python", "oldpython", "fakepython"},
			Args:       []string{"--version"},
			Signature:  `Python 3\.`,
			VersionRE:  `Python (\d+\.\d+(?:\.\d+)?)`,
		},
		{
			Capability: entities.CapabilityNASM,
			Candidates: []string{"fakenasm"},
			Args:       []string{"-v"},
			Signature:  `NASM version`,
			VersionRE:  `NASM version (\d+\.\d+(?:\.\d+)?)`,
		},
		{
			Capability:    entities.CapabilityMSVC,
			Candidates:    []string{"fakecl"},
			Signature:     `Microsoft \(R\) C/C\+\+`,
			VersionRE:     `Version (\d+\.\d+(?:\.\d+)?)`,
			AcceptNonZero: true,
		},
		{
			Capability: entities.CapabilityGCC,
			Candidates: []string{"fwbuild-missing-gcc"},
			Args:       []string{"--version"},
			Signature:  `gcc`,
		},
	}

	env := entities.NewEnvironment().WithSearchPath(dir)
	caps := NewEnvironmentProbe(NewCommandRunner(), env, 0, nil).Probe(context.Background(), specs)

	py, ok := caps.Get(entities.CapabilityPython)
	require.True(t, ok, "python not detected")
	assert.Equal(t, "fakepython", py.Executable)
	assert.Equal(t, "3.11.4", py.Version)

	assert.True(t, caps.VersionAtLeast(entities.CapabilityNASM, "2.15"))
	assert.Equal(t, "fakenasm", caps.Executable(entities.CapabilityNASM))

	cl, ok := caps.Get(entities.CapabilityMSVC)
	require.True(t, ok, "cl banner with non-zero exit should be accepted")
	assert.Equal(t, "19.38.33130", cl.Version)

	assert.False(t, caps.Has(entities.CapabilityGCC), "absent gcc must not be reported")
	assert.Equal(t, 3, caps.Len())
}

func TestEnvironmentProbe_RejectsNonZeroByDefault(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "brokennasm", "echo 'NASM version 2.16'\nexit 1")

	caps := NewEnvironmentProbe(NewCommandRunner(), entities.NewEnvironment().WithSearchPath(dir), 0, nil).
		Probe(context.Background(), []entities.ProbeSpec{{
			Capability: entities.CapabilityNASM,
			Candidates: []string{"brokennasm"},
			Signature:  `NASM version`,
		}})

	assert.False(t, caps.Has(entities.CapabilityNASM), "a failing probe must not be detected")
}
