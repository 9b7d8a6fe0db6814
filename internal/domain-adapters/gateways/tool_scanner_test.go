package gateways

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/fwbuild/internal/domain/entities"
)

func TestBaseToolsLayout(t *testing.T) {
	ws := filepath.Join("ws")

	linux := NewBaseToolsLayout(ws, entities.HostLinux)
	assert.Equal(t, filepath.Join(ws, "BaseTools", "Source", "C", "bin"), linux.BinDir())
	assert.Equal(t, filepath.Join(ws, "BaseTools", "BinWrappers", "PosixLike"), linux.WrapperDir())
	assert.Equal(t, "GenFw", linux.ExecutableName("GenFw"))

	win := NewBaseToolsLayout(ws, entities.HostWindows)
	assert.Equal(t, filepath.Join(ws, "BaseTools", "Bin", "Win32"), win.BinDir())
	assert.Equal(t, "GenFw.exe", win.ExecutableName("GenFw"))
}

func TestToolScanner_Locate(t *testing.T) {
	ws := t.TempDir()
	layout := NewBaseToolsLayout(ws, entities.HostLinux)
	extra := t.TempDir()

	inBin := writeScript(t, layout.BinDir(), "GenFw", "true")
	inSource := writeScript(t, layout.ToolSourceDir("GenSec"), "GenSec", "true")
	onPath := writeScript(t, extra, "GenFv", "true")
	// A copy in the source dir must not shadow the installed one
	writeScript(t, layout.ToolSourceDir("GenFw"), "GenFw", "true")

	s := NewToolScanner(layout, []string{extra})

	tests := []struct {
		tool   string
		want   string
		wantOK bool
	}{
		{"GenFw", inBin, true},
		{"GenSec", inSource, true},
		{"GenFv", onPath, true},
		{"GenFfs", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			got, ok := s.Locate(tt.tool)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{layout.BinDir()}, s.CanonicalDirs())
}

func TestNewToolScannerFromEnv(t *testing.T) {
	ws := t.TempDir()
	extra := t.TempDir()
	want := writeScript(t, extra, "GenFfs", "true")

	env := entities.NewEnvironment().WithSearchPath(extra)
	s := NewToolScannerFromEnv(NewBaseToolsLayout(ws, entities.HostLinux), env)

	got, ok := s.Locate("GenFfs")
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
