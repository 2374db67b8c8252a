package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"CTDataset", filepath.Join("CTDataset", "CTDataset"), "dcmfolder"}, cfg.Input.Candidates)
	assert.Equal(t, 386.0, cfg.Threshold.Cutoff)
	assert.Equal(t, 0.0, cfg.Threshold.InValue)
	assert.Equal(t, 1.0, cfg.Threshold.OutValue)
	assert.Equal(t, 1.0, cfg.Surface.Isovalue)
	assert.Equal(t, 600, cfg.Render.Width)
	assert.Equal(t, 600, cfg.Render.Height)
	assert.True(t, cfg.Render.Interactive)
	assert.Equal(t, "craneo.stl", cfg.Output.MeshFile)
	assert.NoError(t, cfg.Validate())

	// Candidates must not alias the package default.
	cfg.Input.Candidates[0] = "changed"
	assert.Equal(t, "CTDataset", DefaultCandidates[0])
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Candidates = nil
	assert.Error(t, cfg.Validate())
	cfg.Input.Directory = "/data/ct"
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Threshold.OutValue = cfg.Threshold.InValue
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Render.Width = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Output.MeshFile = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
threshold:
  cutoff: 300
render:
  width: 800
output:
  meshFile: skull.stl
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Threshold.Cutoff)
	assert.Equal(t, 800, cfg.Render.Width)
	assert.Equal(t, 600, cfg.Render.Height, "unset keys keep their defaults")
	assert.Equal(t, "skull.stl", cfg.Output.MeshFile)
	assert.Equal(t, 1.0, cfg.Threshold.OutValue)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: [oops"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNamedLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NamedLogger("config")
	ConfigureLogger(log, false, &buf)

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.True(t, strings.Contains(buf.String(), "[config"))

	ConfigureLogger(log, true, nil)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}
