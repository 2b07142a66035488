package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server   string            `json:"server"`
	Port     int               `json:"port"`
	Accounts map[string]string `json:"accounts"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.True(t, errors.Is(err, os.ErrNotExist))

	writeFile(t, path, `{
		// comments and trailing commas are fine
		server: "https://powerschool.example.com",
		port: 8080,
		accounts: { jamie: "secret" },
	}`)
	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Server:   "https://powerschool.example.com",
		Port:     8080,
		Accounts: map[string]string{"jamie": "secret"},
	}, config)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ port: 9090 }`)
	config, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, 9090, config.Port)
	require.Equal(t, "https://powerschool.example.com", config.Server)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{ port: `)

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.False(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("a", "config.local.json5"), LocalPath(filepath.Join("a", "config.json5")))
	require.Equal(t, "config.local", LocalPath("config"))
}
