package gateways

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"

	"github.com/ochairo/fwbuild/internal/domain/entities"
	"github.com/ochairo/fwbuild/internal/domain/interfaces/gateways"
)

// Bundler packs collected artifacts into a gzip-compressed tarball
type Bundler struct{}

// NewBundler creates a bundler
func NewBundler() *Bundler {
	return &Bundler{}
}

var _ gateways.ArtifactBundler = (*Bundler)(nil)

// BundleName returns fwbuild-<arch>-<variant>-<tag>.tar.gz
func BundleName(cfg entities.BuildConfiguration) string {
	return fmt.Sprintf("fwbuild-%s-%s-%s.tar.gz", cfg.Arch, cfg.Variant, cfg.ToolchainTag)
}

// Bundle writes every copied artifact, with its sidecars, into
// dir/BundleName(cfg) and returns the bundle path.
func (b *Bundler) Bundle(dir string, cfg entities.BuildConfiguration, artifacts []entities.ArtifactOutcome) (string, error) {
	var files []string
	for _, a := range artifacts {
		if a.Status != entities.ArtifactCopied {
			continue
		}
		files = append(files, a.Destination)
		for _, sidecar := range []string{a.Destination + ".sha256", a.Signature} {
			if sidecar != "" && fileExists(sidecar) {
				files = append(files, sidecar)
			}
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no artifacts to bundle")
	}

	target := filepath.Join(dir, BundleName(cfg))
	tmp := target + ".tmp"

	//nolint:gosec // G304: bundle path is derived from the output dir
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create bundle: %w", err)
	}

	err = writeTarGz(out, files)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return target, nil
}

func writeTarGz(w io.Writer, files []string) error {
	gz := pgzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, path := range files {
		if err := addFile(tw, path); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return fmt.Errorf("failed to add %s: %w", path, err)
		}
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}

func addFile(tw *tar.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "root", "root"

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	//nolint:gosec // G304: artifact paths come from the collector
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	//nolint:errcheck // read-only
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
