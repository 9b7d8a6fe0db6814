package gateways

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyFile copies src to dst with mode and returns the number of bytes written
func copyFile(src, dst string, mode fs.FileMode) (int64, error) {
	//nolint:gosec // G304: paths come from the build layout
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	//nolint:errcheck // read-only
	defer in.Close()

	tmp := dst + ".tmp"
	//nolint:gosec // G304: paths come from the build layout
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return n, nil
}

// copyTreeIfAbsent copies the directory src to dst unless dst already exists.
// It reports whether a copy happened. The tree is assembled in a hidden
// sibling directory and renamed into place, so dst is either complete or absent.
func copyTreeIfAbsent(src, dst string) (bool, error) {
	return copyTreeWith(src, dst, copyFile)
}

func copyTreeWith(src, dst string, copyFn func(src, dst string, mode fs.FileMode) (int64, error)) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	staging, err := os.MkdirTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-")
	if err != nil {
		return false, fmt.Errorf("failed to stage %s: %w", dst, err)
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(staging, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		_, err = copyFn(path, target, info.Mode().Perm())
		return err
	})
	if err == nil {
		err = os.Chmod(staging, 0o755)
	}
	if err == nil {
		err = os.Rename(staging, dst)
	}
	if err != nil {
		_ = os.RemoveAll(staging)
		return false, fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return true, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
