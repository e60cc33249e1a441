// Package cache persists content digests between scans.
//
// A cached digest is valid while the file keeps its path, size and
// modification time. Each run writes a fresh database and only entries
// that were looked up or stored survive, so stale paths age out on their own.
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ivoronin/dupehound/internal/types"
)

const (
	bucketName = "digests"
	digestSize = 32
)

// Cache stores SHA-256 digests keyed by file identity in BoltDB.
// A nil *Cache is valid and behaves as a disabled cache.
type Cache struct {
	readDB  *bolt.DB // Previous run (read-only)
	writeDB *bolt.DB // This run - BoltDB locks this file
	path    string
	enabled bool
}

// Open opens the previous cache for reading and creates a new one for writing.
// Returns a disabled cache if path is empty.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			// Unreadable previous cache: start cold
			c.readDB = nil
		}
	}

	c.writeDB, err = bolt.Open(path+".new", 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Enabled reports whether lookups and stores reach a database.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Close closes both databases and replaces the old cache with the new one.
// The rename happens only if the write database closed cleanly.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
		c.readDB = nil
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else if err := os.Rename(c.path+".new", c.path); err != nil {
			errs = append(errs, err)
		}
		c.writeDB = nil
	}
	return errors.Join(errs...)
}

const keyVersion byte = 1 // Increment when key format changes

// makeKey builds the lookup key.
// Key = ver(1) + path + NUL + size(8) + mtime(8)
func makeKey(f types.CandidateFile) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(f.Path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, f.Size)
	_ = binary.Write(buf, binary.BigEndian, f.ModTime.UnixNano())
	return buf.Bytes()
}

// Lookup returns the cached digest of f, or nil on a miss.
// A hit is copied into the new database so it survives this run; if that
// copy fails the digest is still returned, alongside the error.
func (c *Cache) Lookup(f types.CandidateFile) ([]byte, error) {
	if !c.Enabled() || c.readDB == nil {
		return nil, nil
	}

	key := makeKey(f)
	var digest []byte

	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get(key); len(data) == digestSize {
			digest = bytes.Clone(data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if digest == nil {
		return nil, nil
	}

	if err := c.Store(f, digest); err != nil {
		return digest, err
	}
	return digest, nil
}

// Store saves the digest of f to the new database.
func (c *Cache) Store(f types.CandidateFile, digest []byte) error {
	if !c.Enabled() || c.writeDB == nil || len(digest) != digestSize {
		return nil
	}

	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(makeKey(f), digest)
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
