package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/bridge"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database: /tmp/mbridge.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mbridge.db", cfg.Database)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "canonical", cfg.Mode)
	assert.Equal(t, bridge.DebugOff, cfg.DebugLevel())
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse([]byte("database: data.db\nworkers: 4\ndebug: high\nmode: strict\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, bridge.DebugHigh, cfg.DebugLevel())
	assert.Equal(t, "strict", cfg.Mode)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("databse: typo.db\n"))
	require.Error(t, err)
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []string{
		"workers: 0\n",
		"debug: loud\n",
		"mode: lenient\n",
	}
	for _, in := range tests {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
