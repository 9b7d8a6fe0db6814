package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumCalculator computes and verifies SHA-256 digests of artifacts
type ChecksumCalculator struct{}

// NewChecksumCalculator creates a checksum calculator
func NewChecksumCalculator() *ChecksumCalculator {
	return &ChecksumCalculator{}
}

// CalculateChecksum returns the hex SHA-256 of a file
func (c *ChecksumCalculator) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: artifact paths come from the build layout
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // read-only
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSidecar writes "<sum>  <name>" to filePath.sha256 and returns its path
func (c *ChecksumCalculator) WriteSidecar(filePath, sum string) (string, error) {
	sidecar := filePath + ".sha256"
	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(filePath))
	if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write checksum file: %w", err)
	}
	return sidecar, nil
}

// VerifyChecksum checks a file against its expected SHA-256
func (c *ChecksumCalculator) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actual, err := c.CalculateChecksum(filePath)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expectedSum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actual)
	}
	return nil
}
