package gateways

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

func TestBuildLog_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "build.log.xz")

	log, err := OpenBuildLog(path)
	require.NoError(t, err)
	assert.Equal(t, path, log.Path())

	_, err = log.Write([]byte("Building ... ACPIPatcherPkg.dsc\n"))
	require.NoError(t, err)
	_, err = log.Write([]byte("- Done -\n"))
	require.NoError(t, err)
	require.NoError(t, log.Close())
	require.NoError(t, log.Close(), "second Close is a no-op")

	_, err = log.Write([]byte("late"))
	assert.Error(t, err)

	data, err := ReadBuildLog(path)
	require.NoError(t, err)
	assert.Equal(t, "Building ... ACPIPatcherPkg.dsc\n- Done -\n", string(data))
}

func TestBuildLog_CapturesCommandOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "build", "echo 'Processing meta-data'\necho 'warning: something' >&2")

	path := filepath.Join(t.TempDir(), "build.log.xz")
	log, err := OpenBuildLog(path)
	require.NoError(t, err)

	res := NewCommandRunner().Run(context.Background(), gateways.Command{
		Name:   "build",
		Env:    entities.NewEnvironment().WithSearchPath(dir),
		Output: log,
	})
	require.True(t, res.Success())
	require.NoError(t, log.Close())

	data, err := ReadBuildLog(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Processing meta-data"))
	assert.True(t, strings.Contains(string(data), "warning: something"))
}
