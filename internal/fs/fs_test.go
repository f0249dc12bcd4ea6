package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFSReadFile(t *testing.T) {
	fs := MockFS(map[string]string{
		"/src/entry.js": "import './a'",
		"/src/a.js":     "",
	})

	contents, err := fs.ReadFile("/src/entry.js")
	require.NoError(t, err)
	assert.Equal(t, "import './a'", contents)

	contents, err = fs.ReadFile("/src/./a.js")
	require.NoError(t, err)
	assert.Equal(t, "", contents)

	_, err = fs.ReadFile("/src/missing.js")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
	assert.Equal(t, "open /src/missing.js: no such file or directory", err.Error())
}

func TestMockFSPaths(t *testing.T) {
	fs := MockFS(nil)

	abs, ok := fs.Abs("src/entry.js")
	assert.True(t, ok)
	assert.Equal(t, "/src/entry.js", abs)
	assert.Equal(t, "/src", fs.Dir("/src/entry.js"))
	assert.Equal(t, "entry.js", fs.Base("/src/entry.js"))
	assert.Equal(t, ".js", fs.Ext("/src/entry.js"))
	assert.Equal(t, "/src/lib/a.js", fs.Join("/src", "./lib/../lib", "a.js"))
	assert.True(t, fs.IsAbs("/a"))
	assert.False(t, fs.IsAbs("a"))

	_, err := fs.ModKey("/src/entry.js")
	assert.Error(t, err)
}

func TestMockFSRel(t *testing.T) {
	fs := MockFS(nil)

	expect := func(a string, b string, c string) {
		t.Helper()
		rel, ok := fs.Rel(a, b)
		require.True(t, ok)
		assert.Equal(t, c, rel)
	}

	expect("/a/b", "/a/b", ".")
	expect("/a/b", "/a/b/c", "c")
	expect("/a/b", "/a/b/c/d", "c/d")
	expect("/a/b/c", "/a/b", "..")
	expect("/a/b/c", "/x", "../../../x")
	expect("/a/b/c", "/a/x/y", "../../x/y")
	expect("/", "/a/b", "a/b")
}
