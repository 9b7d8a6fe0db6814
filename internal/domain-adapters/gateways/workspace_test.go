package gateways

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

func newTestPreparer(t *testing.T, project string, env entities.Environment) *WorkspacePreparer {
	t.Helper()
	p := NewWorkspacePreparer(WorkspaceConfig{
		Settings:   entities.DefaultPlatformSettings(),
		Env:        env,
		ProjectDir: project,
		HomeDir:    filepath.Join(project, "home"),
	})
	p.lookupEnv = func(string) (string, bool) { return "", false }
	return p
}

// newWorkspace lays out a minimal EDK2 tree with Conf templates
func newWorkspace(t *testing.T, root string) {
	t.Helper()
	conf := filepath.Join(root, "BaseTools", "Conf")
	writeFile(t, filepath.Join(conf, "target.template"), "ACTIVE_PLATFORM = EmulatorPkg/EmulatorPkg.dsc\n")
	writeFile(t, filepath.Join(conf, "tools_def.template"), "# tools_def\n")
	writeFile(t, filepath.Join(conf, "build_rule.template"), "# build_rule\n")
}

func writePackage(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "ACPIPatcherPkg", "ACPIPatcherPkg.dsc"), "[Defines]\n")
	writeFile(t, filepath.Join(dir, "ACPIPatcherPkg", "ACPIPatcher", "ACPIPatcher.inf"), "[Defines]\n")
}

func TestWorkspacePreparer_Resolve(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		project := t.TempDir()
		explicit := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, "edk2"), 0o755))

		got, err := newTestPreparer(t, project, entities.NewEnvironment()).Resolve(explicit)
		require.NoError(t, err)
		assert.Equal(t, explicit, got)
	})

	t.Run("missing explicit does not fall back", func(t *testing.T) {
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, "edk2"), 0o755))
		env := entities.NewEnvironment().With(entities.EnvWorkspace, t.TempDir())
		typo := filepath.Join(t.TempDir(), "edk2-typo")

		got, err := newTestPreparer(t, project, env).Resolve(typo)
		require.Error(t, err)
		assert.Empty(t, got)
		assert.True(t, entities.IsKind(err, entities.ErrEnvironmentUnavailable))
		assert.Contains(t, err.Error(), typo)
	})

	t.Run("WORKSPACE from overlay", func(t *testing.T) {
		project := t.TempDir()
		ws := t.TempDir()
		env := entities.NewEnvironment().With(entities.EnvWorkspace, ws)

		got, err := newTestPreparer(t, project, env).Resolve("")
		require.NoError(t, err)
		assert.Equal(t, ws, got)
	})

	t.Run("WORKSPACE from process env", func(t *testing.T) {
		project := t.TempDir()
		ws := t.TempDir()
		p := newTestPreparer(t, project, entities.NewEnvironment())
		p.lookupEnv = func(key string) (string, bool) {
			if key == entities.EnvWorkspace {
				return ws, true
			}
			return "", false
		}

		got, err := p.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, ws, got)
	})

	t.Run("candidates in order", func(t *testing.T) {
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, "temp_edk2"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(project, "home", "edk2"), 0o755))

		got, err := newTestPreparer(t, project, entities.NewEnvironment()).Resolve("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(project, "temp_edk2"), got)
	})

	t.Run("home candidate", func(t *testing.T) {
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, "home", "edk2"), 0o755))

		got, err := newTestPreparer(t, project, entities.NewEnvironment()).Resolve("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(project, "home", "edk2"), got)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, err := newTestPreparer(t, t.TempDir(), entities.NewEnvironment()).Resolve("")
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrEnvironmentUnavailable))
	})
}

func TestWorkspacePreparer_Prepare(t *testing.T) {
	project := t.TempDir()
	ws := filepath.Join(project, "edk2")
	newWorkspace(t, ws)
	writePackage(t, project)
	// An existing Conf file is left untouched
	writeFile(t, filepath.Join(ws, "Conf", "target.txt"), "custom\n")

	p := newTestPreparer(t, project, entities.NewEnvironment())
	got, err := p.Prepare(ws)
	require.NoError(t, err)

	assert.True(t, got.PackageCopied)
	assert.ElementsMatch(t, []string{"build_rule.txt", "tools_def.txt"}, got.ConfCreated)
	assert.FileExists(t, filepath.Join(ws, "ACPIPatcherPkg", "ACPIPatcher", "ACPIPatcher.inf"))

	data, err := os.ReadFile(filepath.Join(ws, "Conf", "target.txt"))
	require.NoError(t, err)
	assert.Equal(t, "custom\n", string(data))

	// Second run copies nothing
	again, err := p.Prepare(ws)
	require.NoError(t, err)
	assert.False(t, again.PackageCopied)
	assert.Empty(t, again.ConfCreated)
}

func TestWorkspacePreparer_Prepare_KeepsWorkspacePackage(t *testing.T) {
	project := t.TempDir()
	ws := filepath.Join(project, "edk2")
	newWorkspace(t, ws)
	writePackage(t, ws)
	writeFile(t, filepath.Join(ws, "ACPIPatcherPkg", "ACPIPatcherPkg.dsc"), "workspace copy\n")
	writePackage(t, project)

	got, err := newTestPreparer(t, project, entities.NewEnvironment()).Prepare(ws)
	require.NoError(t, err)
	assert.False(t, got.PackageCopied)

	data, err := os.ReadFile(filepath.Join(ws, "ACPIPatcherPkg", "ACPIPatcherPkg.dsc"))
	require.NoError(t, err)
	assert.Equal(t, "workspace copy\n", string(data))
}

func TestWorkspacePreparer_Prepare_Failures(t *testing.T) {
	t.Run("no BaseTools", func(t *testing.T) {
		ws := t.TempDir()
		_, err := newTestPreparer(t, t.TempDir(), entities.NewEnvironment()).Prepare(ws)
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrEnvironmentUnavailable))
	})

	t.Run("required files missing", func(t *testing.T) {
		project := t.TempDir()
		ws := filepath.Join(project, "edk2")
		newWorkspace(t, ws)

		_, err := newTestPreparer(t, project, entities.NewEnvironment()).Prepare(ws)
		require.Error(t, err)
		assert.True(t, entities.IsKind(err, entities.ErrEnvironmentUnavailable))
		assert.Contains(t, err.Error(), "ACPIPatcher.inf")
	})
}

func TestWorkspacePreparer_Clean(t *testing.T) {
	ws := t.TempDir()
	out := filepath.Join(ws, "Build", "ACPIPatcherPkg", "RELEASE_GCC5", "X64", "ACPIPatcher.efi")
	writeFile(t, out, "MZ")
	writeFile(t, filepath.Join(ws, "Build", "Other", "keep.txt"), "keep")

	p := newTestPreparer(t, t.TempDir(), entities.NewEnvironment())

	removed, err := p.Clean(ws)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoDirExists(t, filepath.Join(ws, "Build", "ACPIPatcherPkg"))
	assert.FileExists(t, filepath.Join(ws, "Build", "Other", "keep.txt"))

	removed, err = p.Clean(ws)
	require.NoError(t, err)
	assert.False(t, removed)
}
