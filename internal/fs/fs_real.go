package fs

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

type realFS struct {
	cwd string
}

func RealFS() FS {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	} else if resolved, err := filepath.EvalSymlinks(cwd); err == nil {
		// Input paths have their symlinks resolved so the working directory
		// must be too, otherwise relative paths in error messages get long
		cwd = resolved
	}
	return &realFS{cwd: cwd}
}

func (*realFS) ReadFile(path string) (string, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return "", &PathError{Op: pathErr.Op, Path: path, Err: pathErr.Err}
		}
		return "", err
	}

	// Skip the UTF-8 byte order mark if present
	if len(buffer) >= 3 && buffer[0] == 0xEF && buffer[1] == 0xBB && buffer[2] == 0xBF {
		buffer = buffer[3:]
	}
	return string(buffer), nil
}

func (*realFS) ModKey(path string) (ModKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ModKey{}, err
	}
	mtime := info.ModTime()
	if time.Since(mtime) < modKeySafetyGap {
		return ModKey{}, errModKeyUnusable
	}
	return ModKey{size: info.Size(), mtime: mtime, mode: info.Mode(), isValid: true}, nil
}

func (fs *realFS) Abs(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(fs.cwd, p)
	}
	return filepath.Clean(p), true
}

func (*realFS) IsAbs(p string) bool {
	return filepath.IsAbs(p)
}

func (*realFS) Dir(p string) string {
	return filepath.Dir(p)
}

func (*realFS) Base(p string) string {
	return filepath.Base(p)
}

func (*realFS) Ext(p string) string {
	return filepath.Ext(p)
}

func (*realFS) Join(parts ...string) string {
	return filepath.Clean(filepath.Join(parts...))
}

func (fs *realFS) Cwd() string {
	return fs.cwd
}

func (*realFS) Rel(base string, target string) (string, bool) {
	if rel, err := filepath.Rel(base, target); err == nil {
		return rel, true
	}
	return "", false
}
