package gateways

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript creates an executable shell script named name in dir
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX host")
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	//nolint:gosec // G306: test executable needs exec permissions
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// recordingRunner records commands and answers them with fn
type recordingRunner struct {
	calls []gateways.Command
	fn    func(cmd gateways.Command) gateways.CommandResult
}

func (r *recordingRunner) Run(_ context.Context, cmd gateways.Command) gateways.CommandResult {
	r.calls = append(r.calls, cmd)
	if r.fn == nil {
		return gateways.CommandResult{}
	}
	return r.fn(cmd)
}

func testConfig(workspace string) entities.BuildConfiguration {
	return entities.BuildConfiguration{
		Arch:          "X64",
		Variant:       entities.VariantRelease,
		ToolchainTag:  entities.ToolchainGCC5,
		WorkspaceRoot: workspace,
		PackageName:   "ACPIPatcherPkg",
		DSCPath:       "ACPIPatcherPkg/ACPIPatcherPkg.dsc",
		OutputDir:     "Build/ACPIPatcherPkg",
		Host:          entities.HostLinux,
	}
}
