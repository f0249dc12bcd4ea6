package fs

// An in-memory file system for tests. Paths always use forward slashes and
// the working directory is the root, so results are the same on every
// platform.

import (
	"path"
	"strings"
	"syscall"
)

type mockFS struct {
	files map[string]string
	cwd   string
}

func MockFS(input map[string]string) FS {
	files := make(map[string]string, len(input))
	for k, v := range input {
		files[path.Clean(k)] = v
	}
	return &mockFS{files: files, cwd: "/"}
}

func (fs *mockFS) ReadFile(p string) (string, error) {
	if contents, ok := fs.files[path.Clean(p)]; ok {
		return contents, nil
	}
	return "", &PathError{Op: "open", Path: p, Err: syscall.ENOENT}
}

func (*mockFS) ModKey(string) (ModKey, error) {
	return ModKey{}, errModKeyUnusable
}

func (fs *mockFS) Abs(p string) (string, bool) {
	if path.IsAbs(p) {
		return path.Clean(p), true
	}
	return path.Join(fs.cwd, p), true
}

func (*mockFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}

func (*mockFS) Dir(p string) string {
	return path.Dir(p)
}

func (*mockFS) Base(p string) string {
	return path.Base(p)
}

func (*mockFS) Ext(p string) string {
	return path.Ext(p)
}

func (*mockFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

func (fs *mockFS) Cwd() string {
	return fs.cwd
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Every path in the mock file system is absolute, so there is always an answer
func (fs *mockFS) Rel(base string, target string) (string, bool) {
	baseParts := splitPath(base)
	targetParts := splitPath(target)

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	var parts []string
	for range baseParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)

	if len(parts) == 0 {
		return ".", true
	}
	return strings.Join(parts, "/"), true
}
