package web_fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrCacheMiss is returned by Cache.Get when no entry exists for a URL.
var ErrCacheMiss = errors.New("web_fetch: cache miss")

// Cache stores cleaned page text keyed by URL.
type Cache interface {
	Get(ctx context.Context, url string) (string, error)
	Put(ctx context.Context, url, text string) error
}

// CacheKey is the hex MD5 digest of the raw URL.
func CacheKey(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// FileCache keeps one <CacheKey(url)>.txt file per page under Dir.
type FileCache struct {
	Dir string
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{Dir: dir}, nil
}

func (c *FileCache) path(url string) string {
	return filepath.Join(c.Dir, CacheKey(url)+".txt")
}

func (c *FileCache) Get(_ context.Context, url string) (string, error) {
	b, err := os.ReadFile(c.path(url))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("read cache entry: %w", err)
	}
	return string(b), nil
}

// Put writes through a temp file and renames it into place so concurrent
// readers never observe a partial entry.
func (c *FileCache) Put(_ context.Context, url, text string) error {
	tmp, err := os.CreateTemp(c.Dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp cache entry: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(url)); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}
