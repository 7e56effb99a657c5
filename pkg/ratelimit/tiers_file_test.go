package ratelimit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTiersFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTiersFile(t *testing.T) {
	path := writeTiersFile(t, `
tiers:
  - name: free
    max_requests: 60
    window_seconds: 60
    burst_allowance: 10
  - name: internal
    max_requests: 1000
    window_seconds: 60
`)
	tiers, err := LoadTiersFile(path)
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	assert.Equal(t, "free", tiers[0].Name)
	assert.Equal(t, 10, tiers[0].BurstAllowance)
	// Omitted burst_allowance normalizes to 0 at load time.
	assert.Equal(t, 0, tiers[1].BurstAllowance)
	assert.Equal(t, 1000, tiers[1].Limit())
}

func TestLoadTiersFile_Errors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadTiersFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := LoadTiersFile(writeTiersFile(t, "tiers: ["))
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := LoadTiersFile(writeTiersFile(t, "tiers: []"))
		assert.Error(t, err)
	})

	t.Run("InvalidTier", func(t *testing.T) {
		_, err := LoadTiersFile(writeTiersFile(t, `
tiers:
  - name: broken
    max_requests: 0
    window_seconds: 60
`))
		assert.Error(t, err)
	})
}
