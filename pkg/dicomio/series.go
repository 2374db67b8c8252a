package dicomio

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"ctslicesto3d/internal/models"
)

// SortSlices orders slices along the stacking axis. Slices are sorted by
// their position projected on the slice normal when every slice has a
// position, then by SliceLocation, then by InstanceNumber, and finally by
// file name so the order is always total.
func SortSlices(slices []*models.Slice) {
	if len(slices) < 2 {
		return
	}

	keys := make(map[*models.Slice]float64, len(slices))
	switch {
	case allHave(slices, func(s *models.Slice) bool { return s.HasPosition }):
		normal := sliceNormal(slices[0])
		for _, s := range slices {
			keys[s] = r3.Dot(positionOf(s), normal)
		}
	case allHave(slices, func(s *models.Slice) bool { return s.HasSliceLocation }):
		for _, s := range slices {
			keys[s] = s.SliceLocation
		}
	default:
		for _, s := range slices {
			keys[s] = float64(s.InstanceNumber)
		}
	}

	sort.SliceStable(slices, func(i, j int) bool {
		ki, kj := keys[slices[i]], keys[slices[j]]
		if ki != kj {
			return ki < kj
		}
		return slices[i].Filename < slices[j].Filename
	})
}

// SliceSpacing returns the distance between consecutive slices of a
// sorted series. The distance between the first two positions wins, then
// SpacingBetweenSlices, then SliceThickness, then 1.
func SliceSpacing(sorted []*models.Slice) float64 {
	if len(sorted) >= 2 && sorted[0].HasPosition && sorted[1].HasPosition {
		normal := sliceNormal(sorted[0])
		d := math.Abs(r3.Dot(r3.Sub(positionOf(sorted[1]), positionOf(sorted[0])), normal))
		if d > 0 {
			return d
		}
	}
	if len(sorted) > 0 {
		if s := sorted[0].SpacingBetweenSlices; s > 0 {
			return s
		}
		if s := sorted[0].Thickness; s > 0 {
			return s
		}
	}
	return 1
}

// Assemble stacks slices into a volume. Slices are sorted in place first.
// The first image row of each slice becomes the last y row of the volume,
// so the grid origin sits at the lower-left corner of the image. An empty
// input yields a volume with EmptyExtent.
func Assemble(slices []*models.Slice) (*models.Volume, error) {
	if len(slices) == 0 {
		return &models.Volume{
			Extent:  models.EmptyExtent,
			Spacing: [3]float64{1, 1, 1},
		}, nil
	}

	SortSlices(slices)

	first := slices[0]
	rows, cols := first.Rows, first.Cols
	for _, s := range slices[1:] {
		if s.Rows != rows || s.Cols != cols {
			return nil, errors.Errorf("slice %s is %dx%d, series is %dx%d",
				s.Filename, s.Cols, s.Rows, cols, rows)
		}
	}

	depth := len(slices)
	vol := &models.Volume{
		Extent: models.Extent{0, cols - 1, 0, rows - 1, 0, depth - 1},
		// PixelSpacing is (row spacing, column spacing); x runs along a row.
		Spacing: [3]float64{first.PixelSpacing[1], first.PixelSpacing[0], SliceSpacing(slices)},
		Scalars: make([]float64, cols*rows*depth),
	}
	if first.HasPosition {
		vol.Origin = first.Position
	}

	for z, s := range slices {
		if len(s.Pixels) < rows*cols {
			return nil, errors.Errorf("slice %s has %d pixels, want %d", s.Filename, len(s.Pixels), rows*cols)
		}
		for y := 0; y < rows; y++ {
			src := s.Pixels[(rows-1-y)*cols : (rows-y)*cols]
			dst := cols * (y + rows*z)
			copy(vol.Scalars[dst:dst+cols], src)
		}
	}

	return vol, nil
}

func allHave(slices []*models.Slice, pred func(*models.Slice) bool) bool {
	for _, s := range slices {
		if !pred(s) {
			return false
		}
	}
	return true
}

func positionOf(s *models.Slice) r3.Vec {
	return r3.Vec{X: s.Position[0], Y: s.Position[1], Z: s.Position[2]}
}

// sliceNormal is the cross product of the row and column direction
// cosines, or +z when the orientation is missing or degenerate.
func sliceNormal(s *models.Slice) r3.Vec {
	if !s.HasOrientation {
		return r3.Vec{Z: 1}
	}
	row := r3.Vec{X: s.Orientation[0], Y: s.Orientation[1], Z: s.Orientation[2]}
	col := r3.Vec{X: s.Orientation[3], Y: s.Orientation[4], Z: s.Orientation[5]}
	n := r3.Cross(row, col)
	if r3.Norm(n) == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Unit(n)
}
