// Package volume provides array views, slicing and thresholding over
// scalar volumes.
package volume

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Array is a 3D view over a flat scalar buffer in column-major order:
// the first index varies fastest. It does not copy the buffer.
type Array struct {
	data []float64
	dims [3]int
}

// NewArray wraps scalars as an Array of the given dimensions.
func NewArray(scalars []float64, dims [3]int) (*Array, error) {
	for i, d := range dims {
		if d <= 0 {
			return nil, errors.Errorf("dimension %d is %d, must be positive", i, d)
		}
	}
	if n := dims[0] * dims[1] * dims[2]; len(scalars) != n {
		return nil, errors.Errorf("buffer holds %d values, shape %v needs %d", len(scalars), dims, n)
	}
	return &Array{data: scalars, dims: dims}, nil
}

// Shape returns the array dimensions.
func (a *Array) Shape() [3]int {
	return a.dims
}

// At returns the value at [x, y, z].
func (a *Array) At(x, y, z int) float64 {
	return a.data[x+a.dims[0]*(y+a.dims[1]*z)]
}

// SliceY copies the plane [:, y, :] into a dims[0] x dims[2] matrix, so
// element (i, j) is the voxel [i, y, j].
func (a *Array) SliceY(y int) (*mat.Dense, error) {
	if y < 0 || y >= a.dims[1] {
		return nil, &SliceIndexError{Index: y, Size: a.dims[1]}
	}
	m := mat.NewDense(a.dims[0], a.dims[2], nil)
	for x := 0; x < a.dims[0]; x++ {
		for z := 0; z < a.dims[2]; z++ {
			m.Set(x, z, a.At(x, y, z))
		}
	}
	return m, nil
}

// SliceIndexError reports a slice index outside [0, Size).
type SliceIndexError struct {
	Index int
	Size  int
}

func (e *SliceIndexError) Error() string {
	return fmt.Sprintf("computed mid slice index is out of range %d", e.Index)
}

// ExitCode implements the exit status contract of the command.
func (e *SliceIndexError) ExitCode() int { return 1 }

// MidIndex returns the middle index along the second axis, dims[1]/2
// rounded down (the upper middle for even sizes).
func MidIndex(dims [3]int) (int, error) {
	mid := dims[1] / 2
	if mid < 0 || mid >= dims[1] {
		return mid, &SliceIndexError{Index: mid, Size: dims[1]}
	}
	return mid, nil
}

// Rot90 rotates a matrix by 90 degrees counter-clockwise. Element (i, j)
// of the result is element (j, c-1-i) of m, where c is m's column count.
func Rot90(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			out.Set(i, j, m.At(j, c-1-i))
		}
	}
	return out
}
