// Package fsutil holds the file-writing helpers shared by the model and array writers.
package fsutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFileAtomic streams write's output into a temp file next to path and
// renames it into place, so readers never observe a half-written file.
// It returns the number of bytes written.
func WriteFileAtomic(path string, write func(w io.Writer) error) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // No-op after a successful rename
	}()

	cw := &countingWriter{w: tmp}
	if err := write(cw); err != nil {
		_ = tmp.Close()
		return 0, errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Wrapf(err, "failed to close %s", path)
	}
	//nolint:gosec // G302: fixtures are meant to be world-readable
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, errors.Wrapf(err, "failed to chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, errors.Wrapf(err, "failed to rename into %s", path)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
