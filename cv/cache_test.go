package cv

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheTestOBO = "[Term]\nid: MS:1\nname: foo\n"

func newOBOServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.obo") {
			http.NotFound(w, r)
			return
		}
		fetches++
		io.WriteString(w, cacheTestOBO)
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func TestResolveCaches(t *testing.T) {
	srv, fetches := newOBOServer(t)
	c := NewCache(t.TempDir())

	uri := srv.URL + "/psi-ms.obo"
	rc, err := c.Resolve(uri)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, cacheTestOBO, string(data))

	// Second resolution must come from disk: exactly one fetch total.
	rc, err = c.Resolve(uri)
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, cacheTestOBO, string(data))
	assert.Equal(t, 1, *fetches)

	_, err = os.Stat(filepath.Join(c.Dir, "psi-ms.obo"))
	assert.NoError(t, err)
}

func TestResolveDisabled(t *testing.T) {
	srv, fetches := newOBOServer(t)
	dir := t.TempDir()
	c := NewCache(dir)
	c.Enabled = false

	uri := srv.URL + "/psi-ms.obo"
	for i := 0; i < 2; i++ {
		rc, err := c.Resolve(uri)
		require.NoError(t, err)
		rc.Close()
	}
	// Disabled cache fetches every time and persists nothing.
	assert.Equal(t, 2, *fetches)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveFetchFailed(t *testing.T) {
	srv, _ := newOBOServer(t)
	c := NewCache(t.TempDir())

	_, err := c.Resolve(srv.URL + "/missing.obo")
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestResolverEscapeHatch(t *testing.T) {
	c := NewCache(t.TempDir())
	const uri = "http://www.unimod.org/obo/unimod.obo"
	c.SetResolver(uri, func(*Cache) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(cacheTestOBO)), nil
	})

	// The custom resolver takes over completely; no HTTP, no cache file.
	rc, err := c.Resolve(uri)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, cacheTestOBO, string(data))
}

func TestPathFor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "cache")
	c := NewCache(dir)

	p, err := c.PathFor("http://example.org/a/b/psi-ms.obo", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "psi-ms.obo"), p)

	p, err = c.PathFor("unit", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "unit.obo"), p)

	p, err = c.PathFor("unimod.db", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "unimod.db"), p)

	// Lazily created, once.
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
