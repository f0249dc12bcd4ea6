package fs

import (
	"errors"
	iofs "io/fs"
	"syscall"
	"time"
)

// The source provider used by the bundler. Everything that touches paths goes
// through this interface so tests can run against an in-memory file system
// that behaves identically on every platform.
type FS interface {
	// Returns the UTF-8 contents of the file. Missing files are reported with
	// an error that satisfies "IsNotExist".
	ReadFile(path string) (string, error)

	// A cheap summary of the file's metadata. If this hasn't changed between
	// two calls then the contents are assumed to be the same too.
	ModKey(path string) (ModKey, error)

	Abs(path string) (string, bool)
	IsAbs(path string) bool
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)
}

type ModKey struct {
	size    int64
	mtime   time.Time
	mode    iofs.FileMode
	isValid bool
}

// Modification times are only trusted once they are at least this old. A file
// written twice within the file system's timestamp granularity could otherwise
// keep the same key with different contents.
const modKeySafetyGap = 3 * time.Second

var errModKeyUnusable = errors.New("the modification key is unusable")

func IsNotExist(err error) bool {
	return errors.Is(err, syscall.ENOENT)
}
