package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	defaults, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, defaults.Threads, "0 leaves the choice to the number of CPUs")
	assert.Equal(t, 13, defaults.MinK)
	assert.Equal(t, 29, defaults.MaxK)
	assert.Equal(t, 4, defaults.KStep)
	assert.Equal(t, uint(24), defaults.WidthBits)
	assert.Equal(t, 6, defaults.Rows)
	assert.Equal(t, 3, defaults.NClusters)
	assert.Equal(t, 5, defaults.NMC)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PPSKETCH_THREADS", "8")
	t.Setenv("PPSKETCH_MIN_COUNT", "2")
	t.Setenv("PPSKETCH_CLUSTERS", "5")
	defaults, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, defaults.Threads)
	assert.Equal(t, uint8(2), defaults.MinCount)
	assert.Equal(t, 5, defaults.NClusters)

	t.Setenv("PPSKETCH_THREADS", "0")
	defaults, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 0, defaults.Threads)

	t.Setenv("PPSKETCH_THREADS", "-1")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PPSKETCH_THREADS", "lots")
	_, err = Load()
	assert.Error(t, err)
}
