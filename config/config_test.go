package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingDefaultPathIsNotError(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	cwd, err := os.Getwd()
	assert.NoError(err)
	defer os.Chdir(cwd)
	assert.NoError(os.Chdir(dir))

	cfg, err := Load(DefaultPath)
	assert.NoError(err)
	assert.Equal(Config{}, cfg)
}

func TestLoadMissingExplicitPathIsError(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(err)
}

func TestLoadDecodesFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "educpu.toml")
	body := "format = \"hex\"\nmax_cycles = 4096\ntrace = true\n"
	assert.NoError(os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(Config{Format: "hex", MaxCycles: 4096, Trace: true}, cfg)
}
