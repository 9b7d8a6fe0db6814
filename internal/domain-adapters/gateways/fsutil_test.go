package gateways

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTreeIfAbsent(t *testing.T) {
	project := t.TempDir()
	writePackage(t, project)
	src := filepath.Join(project, "ACPIPatcherPkg")
	dst := filepath.Join(t.TempDir(), "ACPIPatcherPkg")

	copied, err := copyTreeIfAbsent(src, dst)
	require.NoError(t, err)
	assert.True(t, copied)
	assert.FileExists(t, filepath.Join(dst, "ACPIPatcherPkg.dsc"))
	assert.FileExists(t, filepath.Join(dst, "ACPIPatcher", "ACPIPatcher.inf"))

	copied, err = copyTreeIfAbsent(src, dst)
	require.NoError(t, err)
	assert.False(t, copied)
}

func TestCopyTreeIfAbsent_FailureLeavesNoPartialTree(t *testing.T) {
	project := t.TempDir()
	writePackage(t, project)
	src := filepath.Join(project, "ACPIPatcherPkg")
	parent := t.TempDir()
	dst := filepath.Join(parent, "ACPIPatcherPkg")

	calls := 0
	failSecond := func(from, to string, mode fs.FileMode) (int64, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("no space left on device")
		}
		return copyFile(from, to, mode)
	}

	copied, err := copyTreeWith(src, dst, failSecond)
	require.Error(t, err)
	assert.False(t, copied)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Equal(t, 2, calls)
	assert.NoDirExists(t, dst)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory is removed")

	// The next run copies the whole tree instead of trusting a half-copied one
	copied, err = copyTreeIfAbsent(src, dst)
	require.NoError(t, err)
	assert.True(t, copied)
	assert.FileExists(t, filepath.Join(dst, "ACPIPatcherPkg.dsc"))
	assert.FileExists(t, filepath.Join(dst, "ACPIPatcher", "ACPIPatcher.inf"))
}
