package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigFileCheck(t *testing.T) {
	t.Run("explicit path exists", func(t *testing.T) {
		path := writeConfig(t, "version: 1\n")
		r := (&ConfigFileCheck{ConfigPath: path}).Run(context.Background())
		assert.Equal(t, StatusPass, r.Status)
		assert.Contains(t, r.Message, path)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.yaml")
		r := (&ConfigFileCheck{ConfigPath: path}).Run(context.Background())
		assert.Equal(t, StatusFail, r.Status)
		assert.Contains(t, r.Message, "not found")
		assert.Contains(t, r.Suggestion, "meshmap init")
	})
}

func TestConfigValidCheck(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, `
version: 1
nodes:
  - name: ap-1
    address: 192.168.1.1
    user: root
  - name: ap-2
    address: 192.168.1.2
    user: root
`)
		check := &ConfigValidCheck{ConfigPath: path}
		r := check.Run(context.Background())

		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, "Config is valid: 2 nodes", r.Message)
		require.NotNil(t, check.Config)
		assert.Len(t, check.Config.Nodes, 2)
	})

	t.Run("no nodes", func(t *testing.T) {
		path := writeConfig(t, "version: 1\nnodes: []\n")
		check := &ConfigValidCheck{ConfigPath: path}
		r := check.Run(context.Background())

		assert.Equal(t, StatusFail, r.Status)
		assert.NotEmpty(t, r.Suggestion)
		assert.Nil(t, check.Config)
	})
}
