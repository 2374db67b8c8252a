// Package config provides configuration loading and management for ctslicesto3d.
// It handles loading configuration from YAML files and provides default values
// matching the behaviour of the one-shot reconstruction script.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for the pipeline.
const (
	DefaultCutoff       = 386.0
	DefaultIsovalue     = 1.0
	DefaultMeshFile     = "craneo.stl"
	DefaultWindowWidth  = 600
	DefaultWindowHeight = 600
)

// DefaultCandidates are probed, in order, for a directory holding .dcm files.
var DefaultCandidates = []string{
	"CTDataset",
	filepath.Join("CTDataset", "CTDataset"),
	"dcmfolder",
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// BaseDir is the directory candidates are resolved against.
		// Empty means the process working directory.
		BaseDir string `yaml:"baseDir"`

		// Candidates are probed in order for .dcm files
		Candidates []string `yaml:"candidates"`

		// Directory, when set, skips probing and reads this directory
		Directory string `yaml:"directory"`
	} `yaml:"input"`

	// Threshold parameters
	Threshold struct {
		// Cutoff separates the two classes: values below it get InValue,
		// values at or above it get OutValue
		Cutoff float64 `yaml:"cutoff"`

		InValue  float64 `yaml:"inValue"`
		OutValue float64 `yaml:"outValue"`
	} `yaml:"threshold"`

	// Surface extraction parameters
	Surface struct {
		// Isovalue is the single label the surface is generated for
		Isovalue float64 `yaml:"isovalue"`
	} `yaml:"surface"`

	// Render window parameters
	Render struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`

		// Interactive shows the heatmaps and opens the blocking 3D window
		// before exporting
		Interactive bool `yaml:"interactive"`
	} `yaml:"render"`

	// Output parameters
	Output struct {
		// MeshFile is the binary STL written after the window closes
		MeshFile string `yaml:"meshFile"`

		// HeatmapDir receives the CT_Original/CT_Thresholded images
		HeatmapDir string `yaml:"heatmapDir"`

		// ExtractSlices writes every orthogonal slice of the original volume
		ExtractSlices bool   `yaml:"extractSlices"`
		SlicesDir     string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Candidates = append([]string(nil), DefaultCandidates...)

	cfg.Threshold.Cutoff = DefaultCutoff
	cfg.Threshold.InValue = 0
	cfg.Threshold.OutValue = 1

	cfg.Surface.Isovalue = DefaultIsovalue

	cfg.Render.Width = DefaultWindowWidth
	cfg.Render.Height = DefaultWindowHeight
	cfg.Render.Title = "ctslicesto3d"
	cfg.Render.Interactive = true

	cfg.Output.MeshFile = DefaultMeshFile
	cfg.Output.HeatmapDir = "."
	cfg.Output.ExtractSlices = false
	cfg.Output.SlicesDir = "reconstructed_slices"
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Input.Directory == "" && len(c.Input.Candidates) == 0 {
		return fmt.Errorf("no input directory and no candidate directories configured")
	}
	if c.Threshold.InValue == c.Threshold.OutValue {
		return fmt.Errorf("threshold inValue and outValue must differ (both %g)", c.Threshold.InValue)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Output.MeshFile == "" {
		return fmt.Errorf("mesh output file must be set")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
