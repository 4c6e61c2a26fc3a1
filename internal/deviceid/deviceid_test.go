package deviceid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_GeneratesOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")

	id, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, id, string(data))
}

func TestLoad_StableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")

	first, err := Load(path)
	require.NoError(t, err)

	second, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoad_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "device_id")

	_, err := Load(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}
