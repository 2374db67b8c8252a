// Package visualization renders 2D views of CT volumes: intensity
// heatmaps and orthogonal slice images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ctslicesto3d/internal/models"
)

// Viewer extracts orthogonal slices from a volume as grayscale images.
// Intensities are mapped linearly from [Low, High] onto the full gray
// range and clamped outside it.
type Viewer struct {
	vol  *models.Volume
	dims [3]int

	Low  float64
	High float64
}

// NewViewer creates a viewer whose intensity window spans the volume's
// value range.
func NewViewer(vol *models.Volume) *Viewer {
	v := &Viewer{vol: vol, dims: vol.Dims()}
	if len(vol.Scalars) > 0 {
		v.Low, v.High = vol.Scalars[0], vol.Scalars[0]
		for _, s := range vol.Scalars[1:] {
			v.Low = math.Min(v.Low, s)
			v.High = math.Max(v.High, s)
		}
	}
	return v
}

func (v *Viewer) gray(s float64) color.Gray16 {
	if v.High <= v.Low {
		return color.Gray16{}
	}
	t := (s - v.Low) / (v.High - v.Low)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(t*65535))))}
}

func (v *Viewer) axisSize(axis string) (int, error) {
	switch strings.ToLower(axis) {
	case "x":
		return v.dims[0], nil
	case "y":
		return v.dims[1], nil
	case "z":
		return v.dims[2], nil
	}
	return 0, errors.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// ExtractSlice extracts a 2D slice perpendicular to axis at position.
// Image rows run top to bottom, so volume rows (stored bottom-up) are
// flipped back for the x and z planes.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	size, err := v.axisSize(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= size {
		return nil, errors.Errorf("position %d outside [0, %d) on axis %s", position, size, axis)
	}

	nx, ny, nz := v.dims[0], v.dims[1], v.dims[2]
	at := func(x, y, z int) float64 { return v.vol.Scalars[x+nx*(y+ny*z)] }

	var img *image.Gray16
	switch strings.ToLower(axis) {
	case "x":
		// YZ plane: columns are z, rows are y
		img = image.NewGray16(image.Rect(0, 0, nz, ny))
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				img.SetGray16(z, ny-1-y, v.gray(at(position, y, z)))
			}
		}
	case "y":
		// XZ plane: columns are x, rows are z
		img = image.NewGray16(image.Rect(0, 0, nx, nz))
		for z := 0; z < nz; z++ {
			for x := 0; x < nx; x++ {
				img.SetGray16(x, z, v.gray(at(x, position, z)))
			}
		}
	default:
		// XY plane, the acquired image
		img = image.NewGray16(image.Rect(0, 0, nx, ny))
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				img.SetGray16(x, ny-1-y, v.gray(at(x, y, position)))
			}
		}
	}
	return img, nil
}

// SaveSlice saves an extracted slice as a PNG image.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return savePNG(filename, img)
}

// SaveSliceSequence extracts and saves every slice along axis into
// outputDir. It returns the number of files written.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) (int, error) {
	size, err := v.axisSize(axis)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, errors.Wrap(err, "create slice directory")
	}

	axis = strings.ToLower(axis)
	for pos := 0; pos < size; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, err
		}
	}
	return size, nil
}

// SaveAllAxes writes the slice sequences of all three axes under
// root/x, root/y and root/z.
func (v *Viewer) SaveAllAxes(root string) (int, error) {
	total := 0
	for _, axis := range []string{"x", "y", "z"} {
		n, err := v.SaveSliceSequence(axis, filepath.Join(root, axis))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
