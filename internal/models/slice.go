package models

import (
	"fmt"
)

// Slice represents a single decoded CT slice with the metadata needed
// to stack it into a volume
type Slice struct {
	// Pixels holds the rescaled intensities, one row after another,
	// top row first as stored in the file
	Pixels []float64

	// Rows and Cols are the image dimensions in pixels
	Rows int
	Cols int

	// Filename is the original filename of the slice
	Filename string

	// InstanceNumber is the (0020,0013) value, 0 when absent
	InstanceNumber int

	// Position is the (0020,0032) ImagePositionPatient, if present
	Position    [3]float64
	HasPosition bool

	// Orientation is the (0020,0037) row and column direction cosines, if present
	Orientation    [6]float64
	HasOrientation bool

	// SliceLocation is the (0020,1041) value, if present
	SliceLocation    float64
	HasSliceLocation bool

	// PixelSpacing is the physical (row, column) spacing in mm
	PixelSpacing [2]float64

	// Thickness is the physical thickness of the slice in mm
	Thickness float64

	// SpacingBetweenSlices is the (0018,0088) value, 0 when absent
	SpacingBetweenSlices float64
}

// Extent is an inclusive index range per axis:
// xmin, xmax, ymin, ymax, zmin, zmax.
type Extent [6]int

// EmptyExtent is what a reader reports when no image could be loaded.
var EmptyExtent = Extent{0, -1, 0, -1, 0, -1}

// Dims returns the pixel-dimension triple derived from the extent.
func (e Extent) Dims() [3]int {
	return [3]int{e[1] - e[0] + 1, e[3] - e[2] + 1, e[5] - e[4] + 1}
}

// Valid reports whether every derived dimension is strictly positive.
func (e Extent) Valid() bool {
	d := e.Dims()
	return d[0] > 0 && d[1] > 0 && d[2] > 0
}

func (e Extent) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d, %d)", e[0], e[1], e[2], e[3], e[4], e[5])
}

// Volume represents a 3D scalar grid loaded from a DICOM series
type Volume struct {
	// Scalars is the 3D volume data as a 1D array with the first axis
	// varying fastest: index = x + nx*(y + ny*z)
	Scalars []float64

	// Extent is the inclusive index range of the grid
	Extent Extent

	// Spacing is the physical size of each voxel in mm (x, y, z)
	Spacing [3]float64

	// Origin is the physical position of voxel (0, 0, 0)
	Origin [3]float64
}

// Dims returns the grid dimensions derived from the extent.
func (v *Volume) Dims() [3]int {
	return v.Extent.Dims()
}

// Index returns the offset of voxel (x, y, z) in Scalars.
func (v *Volume) Index(x, y, z int) int {
	d := v.Dims()
	return x + d[0]*(y+d[1]*z)
}

// WithScalars returns a new volume sharing the geometry of v but holding
// the given scalars.
func (v *Volume) WithScalars(scalars []float64) *Volume {
	return &Volume{
		Scalars: scalars,
		Extent:  v.Extent,
		Spacing: v.Spacing,
		Origin:  v.Origin,
	}
}

// Bounds returns the physical min and max corners of the grid.
func (v *Volume) Bounds() (min, max [3]float64) {
	for i := 0; i < 3; i++ {
		lo := v.Origin[i] + float64(v.Extent[2*i])*v.Spacing[i]
		hi := v.Origin[i] + float64(v.Extent[2*i+1])*v.Spacing[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		min[i], max[i] = lo, hi
	}
	return min, max
}
