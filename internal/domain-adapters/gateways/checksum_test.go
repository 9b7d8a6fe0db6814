package gateways

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantChecksum string
	}{
		{
			name:         "empty file",
			content:      []byte(""),
			wantChecksum: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:         "simple content",
			content:      []byte("Hello, World!"),
			wantChecksum: "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "ACPIPatcher.efi")
			require.NoError(t, os.WriteFile(testFile, tt.content, 0o600))

			checksum, err := NewChecksumCalculator().CalculateChecksum(testFile)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChecksum, checksum)
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "ACPIPatcher.efi")
	require.NoError(t, os.WriteFile(testFile, []byte("Hello, World!"), 0o600))
	c := NewChecksumCalculator()
	invalid := "0000000000000000000000000000000000000000000000000000000000000000"

	t.Run("valid checksum, any case", func(t *testing.T) {
		assert.NoError(t, c.VerifyChecksum(context.Background(), testFile, "DFFD6021BB2BD5B0AF676290809EC3A53191DD81C7F70A4B28688A362182986F"))
	})

	t.Run("invalid checksum", func(t *testing.T) {
		assert.Error(t, c.VerifyChecksum(context.Background(), testFile, invalid))
	})

	t.Run("non-existent file", func(t *testing.T) {
		assert.Error(t, c.VerifyChecksum(context.Background(), "/nonexistent/file.efi", invalid))
	})
}

func TestWriteSidecar(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "ACPIPatcher.efi")
	require.NoError(t, os.WriteFile(testFile, []byte("Hello, World!"), 0o600))

	c := NewChecksumCalculator()
	sum, err := c.CalculateChecksum(testFile)
	require.NoError(t, err)
	sidecar, err := c.WriteSidecar(testFile, sum)
	require.NoError(t, err)

	assert.Equal(t, testFile+".sha256", sidecar)
	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Equal(t, sum+"  ACPIPatcher.efi\n", string(data))
}
