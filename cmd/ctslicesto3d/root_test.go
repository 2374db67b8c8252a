package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctslicesto3d/pkg/config"
)

// newRootForTest builds a command with the root flag set but no action.
func newRootForTest(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addRunFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newRootForTest(t))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c := config.DefaultConfig()
	c.Output.MeshFile = "fromfile.stl"
	c.Render.Width = 800
	require.NoError(t, config.SaveConfig(c, path))

	cmd := newRootForTest(t,
		"--config", path,
		"--dataset", "/data/ct",
		"--height", "480",
		"--no-window",
		"--extract-slices",
	)
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "fromfile.stl", cfg.Output.MeshFile)
	assert.Equal(t, 800, cfg.Render.Width)
	assert.Equal(t, 480, cfg.Render.Height)
	assert.Equal(t, "/data/ct", cfg.Input.Directory)
	assert.False(t, cfg.Render.Interactive)
	assert.True(t, cfg.Output.ExtractSlices)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := loadConfig(newRootForTest(t, "--width", "0"))
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	require.NoError(t, configInitCmd.RunE(configInitCmd, []string{path}))
	assert.Contains(t, out.String(), path)

	_, err := os.Stat(path)
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}
