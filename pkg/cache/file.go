package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// fileMagic starts every entry file; an 8-byte big-endian expiry in Unix
// nanoseconds (zero for none) follows, then the value.
var fileMagic = []byte("FSC1")

const fileHeaderLen = 12

// FileCache stores one file per entry under a directory. It backs the CLI,
// where the cache has to outlive the process.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed and caches into it.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Get reads an entry. Expired and unreadable entries are removed and
// reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	data, expires, ok := decodeFileEntry(raw)
	if !ok || (!expires.IsZero() && c.now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set writes an entry through a temporary file and a rename, so readers
// never see a partial entry.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(encodeFileEntry(data, expires))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes an entry; a missing entry is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry and leaves an empty directory.
func (c *FileCache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

// path fans entries out over subdirectories named by the first two hex
// digits of the key hash.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:])
}

func encodeFileEntry(data []byte, expires time.Time) []byte {
	buf := make([]byte, fileHeaderLen, fileHeaderLen+len(data))
	copy(buf, fileMagic)
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf[len(fileMagic):], uint64(expires.UnixNano()))
	}
	return append(buf, data...)
}

func decodeFileEntry(raw []byte) (data []byte, expires time.Time, ok bool) {
	if len(raw) < fileHeaderLen || !bytes.Equal(raw[:len(fileMagic)], fileMagic) {
		return nil, time.Time{}, false
	}
	if ns := binary.BigEndian.Uint64(raw[len(fileMagic):fileHeaderLen]); ns != 0 {
		expires = time.Unix(0, int64(ns))
	}
	return raw[fileHeaderLen:], expires, true
}

var _ Cache = (*FileCache)(nil)
