package cv

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrFetchFailed = errors.New("cv: vocabulary fetch failed")
)

// DefaultCacheDir is the cache directory used when none is configured.
const DefaultCacheDir = ".obo_cache"

// ResolverFunc is an escape hatch for vocabulary sources that are not
// plain OBO text (e.g. distributed as a database artifact needing its
// own decoder). A func registered for a URI takes over resolution of
// that URI completely, bypassing the cache.
type ResolverFunc func(c *Cache) (io.ReadCloser, error)

// Cache resolves vocabulary source URIs to readable content through a
// flat on-disk cache. The cache directory is created lazily on first
// need. Concurrent processes sharing one directory get last-writer-wins
// on a cached file; no locking is done.
type Cache struct {
	Dir     string
	Enabled bool

	client    *http.Client
	resolvers map[string]ResolverFunc
	dirMade   bool
}

// NewCache returns an enabled cache rooted at dir (DefaultCacheDir if
// empty).
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &Cache{
		Dir:       dir,
		Enabled:   true,
		client:    http.DefaultClient,
		resolvers: make(map[string]ResolverFunc),
	}
}

// SetResolver registers a custom resolver for one exact URI.
func (c *Cache) SetResolver(uri string, fn ResolverFunc) {
	c.resolvers[uri] = fn
}

// SetClient replaces the HTTP client used for fetching.
func (c *Cache) SetClient(client *http.Client) {
	c.client = client
}

// PathFor maps a URI to its cache file path: the basename of the URI,
// with the .obo extension ensured when setExt is true. The cache
// directory is created on first call.
func (c *Cache) PathFor(name string, setExt bool) (string, error) {
	if !c.dirMade {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return "", fmt.Errorf("cv: creating cache dir: %w", err)
		}
		c.dirMade = true
	}
	base := path.Base(name)
	if setExt && !strings.HasSuffix(base, ".obo") {
		base += ".obo"
	}
	return filepath.Join(c.Dir, base), nil
}

// Resolve returns readable content for uri. A registered custom
// resolver takes precedence. Otherwise, with caching enabled, a cached
// copy is returned if present, else the resource is fetched, persisted
// and the persisted copy returned. With caching disabled the fetched
// body is returned directly.
func (c *Cache) Resolve(uri string) (io.ReadCloser, error) {
	if fn, ok := c.resolvers[uri]; ok {
		return fn(c)
	}
	if !c.Enabled {
		return c.fetch(uri)
	}
	name, err := c.PathFor(uri, true)
	if err != nil {
		return nil, err
	}
	if f, err := os.Open(name); err == nil {
		return f, nil
	}
	body, err := c.fetch(uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("cv: writing cache file %s: %w", name, err)
	}
	if _, err = io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(name)
		return nil, fmt.Errorf("cv: writing cache file %s: %w", name, err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("cv: writing cache file %s: %w", name, err)
	}
	return os.Open(name)
}

func (c *Cache) fetch(uri string) (io.ReadCloser, error) {
	resp, err := c.client.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, uri, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %s", ErrFetchFailed, uri, resp.Status)
	}
	return resp.Body, nil
}
