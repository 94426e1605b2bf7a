package witness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/witness/internal/schema"
	"github.com/gnolang/witness/internal/validate"
)

func TestWatchRevalidatesOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	witnessPath := filepath.Join(dir, "witness.yml")
	config := DefaultConfig()
	config.EntryTypes = []string{string(schema.KindLoopInvariant)}

	_, err := Generate(context.Background(), nil, config, programSnapshot, witnessPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan validate.Stats, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, nil, config, ValidateOptions{Snapshot: programSnapshot, Witness: witnessPath},
			func(s validate.Stats, err error) {
				assert.NoError(t, err)
				results <- s
			})
	}()

	select {
	case s := <-results:
		assert.Equal(t, validate.Stats{Confirmed: 3}, s)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial validation")
	}

	require.NoError(t, os.WriteFile(witnessPath, []byte("[]\n"), 0o644))

	select {
	case s := <-results:
		assert.Equal(t, validate.Stats{}, s)
	case <-time.After(5 * time.Second):
		t.Fatal("no revalidation after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
