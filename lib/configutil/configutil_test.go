package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url     string `json:"url"`
	Timeout int    `json:"timeout"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are fine, this is json5
		url: "http://portal.example",
		timeout: 20,
	}`), 0644))

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Url: "http://portal.example", Timeout: 20}, config)

	// the local variant overrides key by key, untouched keys survive
	localPath := filepath.Join(dir, "config.local.json5")
	require.NoError(t, os.WriteFile(localPath, []byte(`{ timeout: 5 }`), 0644))

	config, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Url: "http://portal.example", Timeout: 5}, config)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "config.local.json5")
	require.NoError(t, os.WriteFile(localPath, []byte(`{ url: "http://dev.example" }`), 0644))

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://dev.example", config.Url)
}

func TestLocalVariant(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b.local.json5"), localVariant(filepath.Join("a", "b.json5")))
	require.Equal(t, "telemetry.local.json5", localVariant("telemetry.json5"))
	require.Equal(t, "noext.local", localVariant("noext"))
}
