package gateways

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ulikunitz/xz"
)

// BuildLog captures build output into an xz-compressed file
type BuildLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	xzw  *xz.Writer
}

// OpenBuildLog creates (or truncates) the log at path
func OpenBuildLog(path string) (*BuildLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	//nolint:gosec // G304: path is provided by the operator
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create build log: %w", err)
	}

	w, err := xz.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}

	return &BuildLog{path: path, file: f, xzw: w}, nil
}

// Path returns the log file location
func (l *BuildLog) Path() string {
	return l.path
}

// Write appends p to the compressed stream. Stdout and stderr of the child
// are written from separate goroutines, hence the lock.
func (l *BuildLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.xzw == nil {
		return 0, os.ErrClosed
	}
	return l.xzw.Write(p)
}

// Close flushes the xz stream and closes the file
func (l *BuildLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.xzw == nil {
		return nil
	}

	err := l.xzw.Close()
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.xzw = nil
	return err
}

// ReadBuildLog decompresses a log written by BuildLog
func ReadBuildLog(path string) ([]byte, error) {
	//nolint:gosec // G304: path is provided by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // read-only
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	return io.ReadAll(r)
}
