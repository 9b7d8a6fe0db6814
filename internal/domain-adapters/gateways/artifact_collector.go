package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// ArtifactCollector copies the expected build outputs to a stable destination
type ArtifactCollector struct {
	checksums *ChecksumCalculator
}

// NewArtifactCollector creates an artifact collector
func NewArtifactCollector() *ArtifactCollector {
	return &ArtifactCollector{checksums: NewChecksumCalculator()}
}

var _ gateways.ArtifactCollector = (*ArtifactCollector)(nil)

// Collect looks for each expected filename in
// outputRoot/{variant}_{toolchain}/{arch}/ and copies the ones present to
// dest. Absent files are reported as missing; no other names are tried.
func (c *ArtifactCollector) Collect(outputRoot string, cfg entities.BuildConfiguration, expected []string, dest string) ([]entities.ArtifactOutcome, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination %s: %w", dest, err)
	}

	dir := cfg.ArtifactDir(outputRoot)
	outcomes := make([]entities.ArtifactOutcome, 0, len(expected))

	for _, name := range expected {
		src := filepath.Join(dir, name)
		outcome := entities.ArtifactOutcome{Name: name, SourcePath: src}

		if !fileExists(src) {
			outcome.Status = entities.ArtifactMissing
			outcomes = append(outcomes, outcome)
			continue
		}

		target := filepath.Join(dest, name)
		n, err := copyFile(src, target, 0o644)
		if err != nil {
			return outcomes, fmt.Errorf("failed to copy %s: %w", name, err)
		}

		sum, err := c.checksums.CalculateChecksum(target)
		if err != nil {
			return outcomes, err
		}
		if _, err := c.checksums.WriteSidecar(target, sum); err != nil {
			return outcomes, err
		}

		outcome.Status = entities.ArtifactCopied
		outcome.Destination = target
		outcome.Size = n
		outcome.SHA256 = sum
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// Inventory lists every file under outputRoot with the given extension
func (c *ArtifactCollector) Inventory(outputRoot, ext string) ([]string, error) {
	if !dirExists(outputRoot) {
		return nil, fmt.Errorf("output directory does not exist: %s", outputRoot)
	}

	var found []string
	err := filepath.Walk(outputRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
