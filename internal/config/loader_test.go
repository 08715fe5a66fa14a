package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithFile_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qrscan.yaml")
	contents := "decode:\n  strict_mode: true\nserver:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	l := &Loader{v: viper.New()}
	cfg, err := l.LoadWithFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Decode.StrictMode)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched fields keep their defaults.
	assert.Equal(t, 8, cfg.Prepare.BlockSize)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadWithFile_MissingFileErrors(t *testing.T) {
	l := &Loader{v: viper.New()}
	_, err := l.LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFile_InvalidConfigFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qrscan.yaml")
	contents := "server:\n  port: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	l := &Loader{v: viper.New()}
	_, err := l.LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoadWithoutValidation_NoFilePresentUsesDefaults(t *testing.T) {
	l := &Loader{v: viper.New()}
	l.v.AddConfigPath(t.TempDir())
	cfg, err := l.LoadWithoutValidation()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}
