package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverJSONCWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordctl.jsonc")
	contents := `{
		// overridden for the staging environment
		"listen_addr": ":9090",
		"counter_capacity": 4096,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 4096, cfg.CounterCapacity)
	assert.Equal(t, Default().TermLength, cfg.TermLength)
	assert.Equal(t, Default().TermPartitions, cfg.TermPartitions)
}

func TestLoadRejectsNonPowerOfTwoTermLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordctl.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"term_length": 1000}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordctl.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
