// Package filehash computes and memoizes content hashes of input files.
package filehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
)

// Cache memoizes file hashes for the lifetime of the process.
// Entries are never invalidated.
type Cache struct {
	mutex  sync.RWMutex
	hashes map[string]string
}

func New() *Cache {
	return &Cache{hashes: make(map[string]string)}
}

// Hash returns the hex encoded SHA-256 digest of the file at path.
func (c *Cache) Hash(path string) (string, error) {
	c.mutex.RLock()
	h, ok := c.hashes[path]
	c.mutex.RUnlock()
	if ok {
		return h, nil
	}

	h, err := hashFile(path)
	if err != nil {
		return "", err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if prev, ok := c.hashes[path]; ok {
		return prev, nil
	}
	c.hashes[path] = h
	return h, nil
}

// Len returns the number of memoized files.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.hashes)
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
