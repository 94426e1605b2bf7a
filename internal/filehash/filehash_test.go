package filehash

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte("int main(void) { return 0; }\n"), 0o644))

	c := New()
	h, err := c.Hash(path)
	require.NoError(t, err)
	assert.Len(t, h, 64)

	t.Run("Memoized", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("changed\n"), 0o644))
		again, err := c.Hash(path)
		require.NoError(t, err)
		assert.Equal(t, h, again)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("FreshCacheSeesChange", func(t *testing.T) {
		other, err := New().Hash(path)
		require.NoError(t, err)
		assert.NotEqual(t, h, other)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := c.Hash(filepath.Join(dir, "missing.c"))
		assert.Error(t, err)
		assert.Equal(t, 1, c.Len())
	})
}

func TestHashKnownDigest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	h, err := New().Hash(path)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", h)
}

func TestHashConcurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "b.c")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	c := New()
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Hash(path)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, 1, c.Len())
}
