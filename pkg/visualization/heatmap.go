package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/mat"
)

const (
	titleBand  = 48
	plotMargin = 24
	glyphH     = 13
)

// Heatmap is a 2D intensity plot of one volume slice.
type Heatmap struct {
	// Title is drawn above the plot and names the output file.
	Title string
	// Label names the slice in diagnostics, e.g. "original".
	Label string
	// Data is plotted with row 0 at the bottom.
	Data mat.Matrix
	// Shape is the shape of the 3D array the slice was taken from.
	Shape [3]int
}

// HeatmapError reports a failed heatmap together with the shape of the
// array it was taken from.
type HeatmapError struct {
	Title string
	Label string
	Shape [3]int
	Err   error
}

func (e *HeatmapError) Error() string {
	return fmt.Sprintf("plotting %s: %v", e.Title, e.Err)
}

func (e *HeatmapError) Unwrap() error { return e.Err }

// ExitCode implements the exit status contract of the command. Plotting
// failures exit with 2, distinct from the other aborts.
func (e *HeatmapError) ExitCode() int { return 2 }

// ShapeString formats the array shape as "(a, b, c)".
func (e *HeatmapError) ShapeString() string {
	return fmt.Sprintf("(%d, %d, %d)", e.Shape[0], e.Shape[1], e.Shape[2])
}

// HeatmapWriter renders heatmaps into fixed size PNG files.
type HeatmapWriter struct {
	Dir    string
	Width  int
	Height int
}

// NewHeatmapWriter creates a writer for dir with the given canvas size.
func NewHeatmapWriter(dir string, width, height int) *HeatmapWriter {
	return &HeatmapWriter{Dir: dir, Width: width, Height: height}
}

// Write renders h and stores it as <Title>.png. Any failure comes back as
// a *HeatmapError.
func (w *HeatmapWriter) Write(h Heatmap) (string, error) {
	fail := func(err error) (string, error) {
		return "", &HeatmapError{Title: h.Title, Label: h.Label, Shape: h.Shape, Err: err}
	}

	img, err := RenderHeatmap(h.Title, h.Data, w.Width, w.Height)
	if err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fail(errors.Wrap(err, "create heatmap directory"))
	}
	path := filepath.Join(w.Dir, h.Title+".png")
	if err := savePNG(path, img); err != nil {
		return fail(err)
	}
	return path, nil
}

// RenderHeatmap draws m as a black to white heatmap scaled between its
// minimum and maximum. A constant matrix renders black.
func RenderHeatmap(title string, m mat.Matrix, width, height int) (*image.RGBA, error) {
	if m == nil {
		return nil, errors.New("no data")
	}
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Errorf("empty matrix %dx%d", rows, cols)
	}
	if width <= 2*plotMargin || height <= titleBand+2*plotMargin {
		return nil, errors.Errorf("canvas %dx%d too small", width, height)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Errorf("non-finite value at (%d, %d)", i, j)
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	// One pixel per cell, row 0 at the bottom.
	cells := image.NewGray(image.Rect(0, 0, cols, rows))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var g uint8
			if hi > lo {
				g = uint8(math.Round((m.At(i, j) - lo) / (hi - lo) * 255))
			}
			cells.SetGray(j, rows-1-i, color.Gray{Y: g})
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	plot := image.Rect(plotMargin, titleBand+plotMargin, width-plotMargin, height-plotMargin)
	draw.NearestNeighbor.Scale(canvas, plot, cells, cells.Bounds(), draw.Src, nil)

	drawTitle(canvas, title)
	return canvas, nil
}

// drawTitle renders text with the basic font and scales it up into the
// title band.
func drawTitle(dst *image.RGBA, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil()
	textImg := image.NewRGBA(image.Rect(0, 0, tw, glyphH+3))
	d := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(glyphH)},
	}
	d.DrawString(text)

	scale := 2
	for tw*scale > dst.Bounds().Dx()-2*plotMargin && scale > 1 {
		scale--
	}
	sw, sh := tw*scale, textImg.Bounds().Dy()*scale
	x := (dst.Bounds().Dx() - sw) / 2
	y := (titleBand - sh) / 2
	draw.BiLinear.Scale(dst, image.Rect(x, y, x+sw, y+sh), textImg, textImg.Bounds(), draw.Over, nil)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create image file")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrap(f.Close(), "close image file")
}
