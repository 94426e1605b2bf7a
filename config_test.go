package witness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig(filepath.Join(t.TempDir(), DefaultConfigPath))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "witness.yaml")
	content := `
entry_types: [precondition_loop_invariant, invariant_set]
invariant_types: [loop_invariant]
invariant:
  accessed: false
task:
  data_model: ILP32
  language: C
validate:
  certificate: cert.yml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"precondition_loop_invariant", "invariant_set"}, config.EntryTypes)
	assert.Equal(t, []string{"loop_invariant"}, config.InvariantTypes)
	assert.False(t, config.Invariant.Accessed)
	assert.True(t, config.Invariant.LoopHead, "unset fields keep their default")
	assert.Equal(t, "ILP32", config.Task.DataModel)
	assert.Equal(t, "cert.yml", config.Validate.Certificate)
	assert.Equal(t, "witness", config.Producer.Name)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"unknown field", "rules: {}\n", "field rules not found"},
		{"unknown entry type", "entry_types: [violation_sequence]\n", "entry_types"},
		{"bad invariant type", "invariant_types: [flow_insensitive_invariant]\n", "invariant_types"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "witness.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "witness.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	want := DefaultConfig()
	want.Task.Specification = "CHECK( init(main()), LTL(G ! call(reach_error())) )"
	require.NoError(t, WriteConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
