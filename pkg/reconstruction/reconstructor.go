// Package reconstruction runs the CT pipeline: locate the series, read
// the volume, plot the middle slice before and after thresholding,
// extract the bone surface, show it and export it as STL.
package reconstruction

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ctslicesto3d/internal/models"
	"ctslicesto3d/pkg/config"
	"ctslicesto3d/pkg/dicomio"
	"ctslicesto3d/pkg/locator"
	"ctslicesto3d/pkg/scene"
	"ctslicesto3d/pkg/stl"
	"ctslicesto3d/pkg/surface"
	"ctslicesto3d/pkg/visualization"
	"ctslicesto3d/pkg/volume"
)

// Heatmap titles double as the image file names.
const (
	TitleOriginal    = "CT_Original"
	TitleThresholded = "CT_Thresholded"
)

// Params holds the reconstruction parameters.
type Params struct {
	// BaseDir is where candidate directories are resolved; empty means the
	// working directory.
	BaseDir string

	// Candidates are probed in order for .dcm files.
	Candidates []string

	// Directory, when set, is read directly without probing.
	Directory string

	// Threshold binarizes the volume before surface extraction.
	Threshold volume.Threshold

	// Isovalue is the label the surface is generated for.
	Isovalue float64

	// OutputFile is the binary STL path, overwritten on each run.
	OutputFile string

	// HeatmapDir receives CT_Original.png and CT_Thresholded.png.
	HeatmapDir string

	// Window configures the 3D view; its size is also used for heatmaps.
	Window scene.Options

	// Interactive displays both heatmaps and shows the 3D window before
	// export.
	Interactive bool

	// ExtractSlices writes every orthogonal slice of the original volume
	// under SlicesDir.
	ExtractSlices bool
	SlicesDir     string
}

// ParamsFromConfig converts a loaded configuration into run parameters.
func ParamsFromConfig(cfg *config.Config) *Params {
	return &Params{
		BaseDir:    cfg.Input.BaseDir,
		Candidates: cfg.Input.Candidates,
		Directory:  cfg.Input.Directory,
		Threshold: volume.Threshold{
			Cutoff:   cfg.Threshold.Cutoff,
			InValue:  cfg.Threshold.InValue,
			OutValue: cfg.Threshold.OutValue,
		},
		Isovalue:   cfg.Surface.Isovalue,
		OutputFile: cfg.Output.MeshFile,
		HeatmapDir: cfg.Output.HeatmapDir,
		Window: scene.Options{
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
			Title:  cfg.Render.Title,
		},
		Interactive:   cfg.Render.Interactive,
		ExtractSlices: cfg.Output.ExtractSlices,
		SlicesDir:     cfg.Output.SlicesDir,
	}
}

// VolumeReader loads a DICOM series directory into a volume.
type VolumeReader interface {
	ReadSeries(dir string) (*models.Volume, error)
}

// Result summarizes a completed run.
type Result struct {
	Directory    string
	Volume       *models.Volume
	Binary       *models.Volume
	Mesh         *surface.Mesh
	Heatmaps     []string
	OutputFile   string
	Shells       int
	ClosedShells int
	SliceImages  int
	Elapsed      time.Duration
}

// Reconstructor sequences the pipeline stages.
type Reconstructor struct {
	params   *Params
	reader   VolumeReader
	renderer scene.Renderer
	present  func(path string) error
	stdout   io.Writer
	log      *logrus.Logger
}

// Option customizes a Reconstructor.
type Option func(*Reconstructor)

// WithReader replaces the DICOM reader.
func WithReader(r VolumeReader) Option {
	return func(rc *Reconstructor) { rc.reader = r }
}

// WithRenderer sets the 3D view. Without one the interactive stage is
// skipped.
func WithRenderer(r scene.Renderer) Option {
	return func(rc *Reconstructor) { rc.renderer = r }
}

// WithHeatmapViewer sets how saved heatmaps are shown in interactive runs.
// view must not wait for the user to close the image.
func WithHeatmapViewer(view func(path string) error) Option {
	return func(rc *Reconstructor) { rc.present = view }
}

// WithStdout redirects console output.
func WithStdout(w io.Writer) Option {
	return func(rc *Reconstructor) { rc.stdout = w }
}

// WithLogger sets the progress logger.
func WithLogger(l *logrus.Logger) Option {
	return func(rc *Reconstructor) { rc.log = l }
}

// NewReconstructor creates a new reconstructor instance with the provided
// parameters.
func NewReconstructor(params *Params, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		params: params,
		stdout: os.Stdout,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.reader == nil {
		r.reader = dicomio.NewReader(r.log)
	}
	return r
}

// Process runs the complete pipeline. It stops at the first failing stage
// and returns that stage's error unchanged, so callers can map it to an
// exit status with ExitCode.
func (r *Reconstructor) Process() (*Result, error) {
	start := time.Now()
	res := &Result{}

	// Step 1: locate the series
	r.log.Info("Step 1: Locating DICOM directory...")
	dir, err := r.locate()
	if err != nil {
		return nil, err
	}
	res.Directory = dir
	r.log.Infof("Using DICOM directory %s", dir)

	// Step 2: read the volume
	r.log.Info("Step 2: Reading DICOM series...")
	vol, err := r.reader.ReadSeries(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read series %s", dir)
	}
	fmt.Fprintln(r.stdout, "Pixel Spacing:", FormatTuple(vol.Spacing[0], vol.Spacing[1], vol.Spacing[2]))
	dims, err := dicomio.CheckDims(vol.Extent)
	if err != nil {
		return nil, err
	}
	res.Volume = vol
	r.log.Infof("Volume %dx%dx%d: %s", dims[0], dims[1], dims[2], volume.Summarize(vol))

	if r.params.ExtractSlices {
		n, err := visualization.NewViewer(vol).SaveAllAxes(r.params.SlicesDir)
		if err != nil {
			return nil, errors.Wrap(err, "extract slices")
		}
		res.SliceImages = n
		r.log.Infof("Saved %d slice images to %s", n, r.params.SlicesDir)
	}

	// Step 3: plot the middle slice of the original volume
	r.log.Info("Step 3: Plotting middle slice...")
	mid, err := volume.MidIndex(dims)
	if err != nil {
		return nil, err
	}
	path, err := r.plot(vol, dims, mid, TitleOriginal, "original")
	if err != nil {
		return nil, err
	}
	res.Heatmaps = append(res.Heatmaps, path)

	// Step 4: threshold and plot the same slice again
	r.log.Info("Step 4: Thresholding volume...")
	bin := r.params.Threshold.Apply(vol)
	res.Binary = bin
	r.log.Infof("%d of %d voxels at or above %g",
		volume.Count(bin, r.params.Threshold.OutValue), len(bin.Scalars), r.params.Threshold.Cutoff)

	path, err = r.plot(bin, dims, mid, TitleThresholded, "thresholded")
	if err != nil {
		return nil, err
	}
	res.Heatmaps = append(res.Heatmaps, path)

	// Step 5: extract the surface
	r.log.Info("Step 5: Extracting surface with marching cubes...")
	mesh, err := surface.Extract(bin, r.params.Isovalue)
	if err != nil {
		return nil, err
	}
	res.Mesh = mesh
	shells := mesh.Shells()
	res.Shells = len(shells)
	for _, s := range shells {
		if s.Closed {
			res.ClosedShells++
		}
	}
	r.log.Infof("Mesh: %d triangles, %d vertices, %d shells (%d closed)",
		mesh.TriangleCount(), mesh.VertexCount(), res.Shells, res.ClosedShells)

	// Step 6: show the scene
	sc, err := scene.Build(mesh, scene.OutlineOf(vol), r.params.Window)
	if err != nil {
		return nil, err
	}
	if r.params.Interactive && r.renderer != nil {
		r.log.Info("Step 6: Rendering scene, close the window to continue...")
		if err := r.renderer.Render(sc); err != nil {
			return nil, errors.Wrap(err, "render scene")
		}
	} else {
		r.log.Info("Step 6: Skipping interactive view")
	}

	// Step 7: export
	r.log.Info("Step 7: Writing STL...")
	if err := stl.SaveToSTL(r.params.OutputFile, mesh.Triangles()); err != nil {
		return nil, errors.Wrapf(err, "export %s", r.params.OutputFile)
	}
	res.OutputFile = r.params.OutputFile
	res.Elapsed = time.Since(start)
	r.log.Infof("Wrote %s in %.2f seconds", r.params.OutputFile, res.Elapsed.Seconds())

	return res, nil
}

func (r *Reconstructor) locate() (string, error) {
	if dir := r.params.Directory; dir != "" {
		if !locator.HasDICOMFiles(dir) {
			return "", &locator.NotFoundError{Candidates: []string{dir}}
		}
		return dir, nil
	}
	return locator.Locate(r.params.BaseDir, r.params.Candidates)
}

// plot renders the rotated y slice of vol at mid and, in interactive runs,
// hands the image to the heatmap viewer. Rendering failures come back as
// *visualization.HeatmapError carrying the volume shape.
func (r *Reconstructor) plot(vol *models.Volume, dims [3]int, mid int, title, label string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &visualization.HeatmapError{Title: title, Label: label, Shape: dims, Err: err}
	}

	arr, err := volume.NewArray(vol.Scalars, dims)
	if err != nil {
		return fail(err)
	}
	slice, err := arr.SliceY(mid)
	if err != nil {
		return fail(err)
	}

	width, height := r.params.Window.Width, r.params.Window.Height
	if width == 0 {
		width = scene.DefaultWidth
	}
	if height == 0 {
		height = scene.DefaultHeight
	}
	w := visualization.NewHeatmapWriter(r.params.HeatmapDir, width, height)
	path, err := w.Write(visualization.Heatmap{
		Title: title,
		Label: label,
		Data:  volume.Rot90(slice),
		Shape: dims,
	})
	if err != nil {
		return "", err
	}
	r.log.Debugf("Saved heatmap %s", path)

	if r.params.Interactive && r.present != nil {
		if err := r.present(path); err != nil {
			r.log.Warnf("Could not display %s: %v", path, err)
		}
	}
	return path, nil
}
