package main

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ctslicesto3d/pkg/config"
	"ctslicesto3d/pkg/reconstruction"
	"ctslicesto3d/pkg/render"
)

var log = config.NamedLogger("ctslicesto3d")

var rootCmd = &cobra.Command{
	Use:   "ctslicesto3d",
	Short: "Reconstruct a bone surface mesh from CT DICOM slices",
	Long: `ctslicesto3d reads a CT DICOM series, saves heatmaps of the middle slice
before and after bone thresholding, extracts the bone surface with marching
cubes, shows it in a 3D window and exports it as binary STL.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "ctslicesto3d.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

func init() {
	addRunFlags(rootCmd.Flags())
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func addRunFlags(f *pflag.FlagSet) {
	f.String("config", "", "YAML configuration file")
	f.String("dataset", "", "DICOM directory to read, skipping the candidate search")
	f.String("output", config.DefaultMeshFile, "Output STL file")
	f.String("heatmap-dir", ".", "Directory for the slice heatmap images")
	f.Int("width", config.DefaultWindowWidth, "3D window and heatmap width")
	f.Int("height", config.DefaultWindowHeight, "3D window and heatmap height")
	f.Bool("no-window", false, "Only save the heatmaps and skip the interactive 3D view")
	f.Bool("extract-slices", false, "Save every orthogonal slice of the volume")
	f.String("slices-dir", "reconstructed_slices", "Directory for extracted slices")
	f.BoolP("verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the config file and applies the flags that were set
// explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if f.Changed("dataset") {
		cfg.Input.Directory, _ = f.GetString("dataset")
	}
	if f.Changed("output") {
		cfg.Output.MeshFile, _ = f.GetString("output")
	}
	if f.Changed("heatmap-dir") {
		cfg.Output.HeatmapDir, _ = f.GetString("heatmap-dir")
	}
	if f.Changed("width") {
		cfg.Render.Width, _ = f.GetInt("width")
	}
	if f.Changed("height") {
		cfg.Render.Height, _ = f.GetInt("height")
	}
	if noWindow, _ := f.GetBool("no-window"); noWindow {
		cfg.Render.Interactive = false
	}
	if f.Changed("extract-slices") {
		cfg.Output.ExtractSlices, _ = f.GetBool("extract-slices")
	}
	if f.Changed("slices-dir") {
		cfg.Output.SlicesDir, _ = f.GetString("slices-dir")
	}
	if verbose, _ := f.GetBool("verbose"); verbose {
		cfg.Output.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	config.ConfigureLogger(log, cfg.Output.Verbose, nil)

	printBanner()

	opts := []reconstruction.Option{reconstruction.WithLogger(log)}
	if cfg.Render.Interactive {
		// Viewer chatter must not mix with the diagnostics on stdout.
		browser.Stdout = os.Stderr
		opts = append(opts,
			reconstruction.WithHeatmapViewer(browser.OpenFile),
			reconstruction.WithRenderer(render.NewWindow(log)),
		)
	}
	res, err := reconstruction.NewReconstructor(reconstruction.ParamsFromConfig(cfg), opts...).Process()
	if err != nil {
		log.Debugf("pipeline failed: %+v", err)
		return err
	}

	printSummary(res)
	return nil
}
