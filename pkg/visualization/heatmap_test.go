package visualization

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRenderHeatmapScaling(t *testing.T) {
	// Row 0 holds the low values and must end up at the bottom.
	m := mat.NewDense(2, 2, []float64{
		0, 0,
		10, 10,
	})
	img, err := RenderHeatmap("scaled", m, 200, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	top := img.RGBAAt(100, titleBand+plotMargin+5)
	bottom := img.RGBAAt(100, 200-plotMargin-5)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, top)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, bottom)
}

func TestRenderHeatmapConstantIsBlack(t *testing.T) {
	m := mat.NewDense(3, 3, nil)
	m.Apply(func(_, _ int, _ float64) float64 { return 1 }, m)

	img, err := RenderHeatmap("flat", m, 150, 150)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(75, 100))
}

func TestRenderHeatmapRejectsBadInput(t *testing.T) {
	_, err := RenderHeatmap("nil", nil, 200, 200)
	assert.Error(t, err)

	_, err = RenderHeatmap("small", mat.NewDense(1, 1, nil), 10, 10)
	assert.Error(t, err)

	_, err = RenderHeatmap("nan", mat.NewDense(1, 2, []float64{0, nan()}), 200, 200)
	assert.Error(t, err)
}

func TestHeatmapWriterWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	w := NewHeatmapWriter(dir, 240, 240)

	path, err := w.Write(Heatmap{
		Title: "CT_Original",
		Label: "original",
		Data:  mat.NewDense(4, 6, nil),
		Shape: [3]int{6, 5, 4},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "CT_Original.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 240, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestHeatmapWriterError(t *testing.T) {
	w := NewHeatmapWriter(t.TempDir(), 20, 20)
	_, err := w.Write(Heatmap{
		Title: "CT_Thresholded",
		Label: "thresholded",
		Data:  mat.NewDense(2, 2, nil),
		Shape: [3]int{2, 3, 2},
	})

	var he *HeatmapError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "thresholded", he.Label)
	assert.Equal(t, "(2, 3, 2)", he.ShapeString())
	assert.Equal(t, 2, he.ExitCode())
	assert.Error(t, errors.Unwrap(err))
}

func nan() float64 {
	var zero float64
	return zero / zero
}
