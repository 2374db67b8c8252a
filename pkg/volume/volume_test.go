package volume

import (
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"ctslicesto3d/internal/models"
)

// sphereVolume builds an n^3 grid of 0 with a centered ball of value
// inside.
func sphereVolume(n int, radius, inside float64) *models.Volume {
	v := &models.Volume{
		Scalars: make([]float64, n*n*n),
		Extent:  models.Extent{0, n - 1, 0, n - 1, 0, n - 1},
		Spacing: [3]float64{1, 1, 1},
	}
	c := float64(n-1) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy, dz := float64(x)-c, float64(y)-c, float64(z)-c
				if math.Sqrt(dx*dx+dy*dy+dz*dz) <= radius {
					v.Scalars[v.Index(x, y, z)] = inside
				}
			}
		}
	}
	return v
}

func TestNewArrayValidatesShape(t *testing.T) {
	_, err := NewArray(make([]float64, 6), [3]int{1, 2, 3})
	require.NoError(t, err)

	_, err = NewArray(make([]float64, 5), [3]int{1, 2, 3})
	assert.Error(t, err)

	_, err = NewArray(nil, [3]int{0, 2, 3})
	assert.Error(t, err)
}

func TestNewArrayErrorsCarryStack(t *testing.T) {
	_, err := NewArray(make([]float64, 5), [3]int{1, 2, 3})
	require.Error(t, err)

	// The stack is printed with %+v for debug logging.
	_, ok := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, ok)
	assert.Contains(t, fmt.Sprintf("%+v", err), "NewArray")
}

func TestArrayColumnMajor(t *testing.T) {
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	a, err := NewArray(data, [3]int{4, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, [3]int{4, 3, 2}, a.Shape())
	assert.Equal(t, 1.0, a.At(1, 0, 0))
	assert.Equal(t, 4.0, a.At(0, 1, 0))
	assert.Equal(t, 12.0, a.At(0, 0, 1))
	assert.Equal(t, 23.0, a.At(3, 2, 1))
}

func TestSliceY(t *testing.T) {
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	a, err := NewArray(data, [3]int{4, 3, 2})
	require.NoError(t, err)

	m, err := a.SliceY(1)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	for x := 0; x < 4; x++ {
		for z := 0; z < 2; z++ {
			assert.Equal(t, a.At(x, 1, z), m.At(x, z))
		}
	}

	_, err = a.SliceY(3)
	var se *SliceIndexError
	assert.ErrorAs(t, err, &se)
}

func TestMidIndex(t *testing.T) {
	mid, err := MidIndex([3]int{4, 11, 4})
	require.NoError(t, err)
	assert.Equal(t, 5, mid)

	mid, err = MidIndex([3]int{4, 10, 4})
	require.NoError(t, err)
	assert.Equal(t, 5, mid)

	mid, err = MidIndex([3]int{4, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, 0, mid)

	_, err = MidIndex([3]int{4, 0, 4})
	var se *SliceIndexError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.ExitCode())
	assert.Equal(t, "computed mid slice index is out of range 0", se.Error())
}

func TestRot90(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	got := Rot90(m)
	want := mat.NewDense(3, 2, []float64{
		3, 6,
		2, 5,
		1, 4,
	})
	assert.True(t, mat.Equal(want, got), "got %v", mat.Formatted(got))

	// Four rotations are the identity.
	r := Rot90(Rot90(Rot90(got)))
	assert.True(t, mat.Equal(m, r))
}

func TestThresholdBoundary(t *testing.T) {
	th := BoneThreshold
	assert.Equal(t, 0.0, th.Classify(-1024))
	assert.Equal(t, 0.0, th.Classify(385))
	assert.Equal(t, 0.0, th.Classify(385.999))
	assert.Equal(t, 1.0, th.Classify(386))
	assert.Equal(t, 1.0, th.Classify(3000))
}

func TestThresholdApply(t *testing.T) {
	src := &models.Volume{
		Scalars: []float64{-1000, 385, 386, 387},
		Extent:  models.Extent{0, 3, 0, 0, 0, 0},
		Spacing: [3]float64{0.5, 0.5, 2},
		Origin:  [3]float64{1, 2, 3},
	}
	out := BoneThreshold.Apply(src)

	assert.Equal(t, []float64{0, 0, 1, 1}, out.Scalars)
	assert.Equal(t, src.Extent, out.Extent)
	assert.Equal(t, src.Spacing, out.Spacing)
	assert.Equal(t, src.Origin, out.Origin)
	// Source untouched.
	assert.Equal(t, []float64{-1000, 385, 386, 387}, src.Scalars)
}

func TestThresholdOutputIsBinary(t *testing.T) {
	v := sphereVolume(12, 4, 1200)
	for i := range v.Scalars {
		if v.Scalars[i] == 0 {
			v.Scalars[i] = float64(i%700) - 300
		}
	}
	out := BoneThreshold.Apply(v)
	assert.Equal(t, len(out.Scalars), Count(out, 0)+Count(out, 1))
}

func TestThresholdIdempotentOnBinary(t *testing.T) {
	v := sphereVolume(10, 3, 500)
	once := BoneThreshold.Apply(v)

	// A binary volume classified again at the isovalue is unchanged.
	again := Threshold{Cutoff: 1, InValue: 0, OutValue: 1}.Apply(once)
	assert.Equal(t, once.Scalars, again.Scalars)
}

func TestThresholdSphereCount(t *testing.T) {
	v := sphereVolume(10, 3, 500)
	inside := Count(v, 500)
	require.Greater(t, inside, 0)

	out := BoneThreshold.Apply(v)
	assert.Equal(t, inside, Count(out, 1))
	assert.Equal(t, len(v.Scalars)-inside, Count(out, 0))
}

func TestSummarize(t *testing.T) {
	v := &models.Volume{Scalars: []float64{-2, 0, 2, 4}}
	s := Summarize(v)
	assert.Equal(t, 4, s.Voxels)
	assert.Equal(t, -2.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 1.0, s.Mean, 1e-12)
	assert.Contains(t, s.String(), "4 voxels")

	assert.Equal(t, Summary{}, Summarize(&models.Volume{}))
}
