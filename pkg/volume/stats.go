package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ctslicesto3d/internal/models"
)

// Summary holds intensity statistics of a volume.
type Summary struct {
	Voxels int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes intensity statistics over all scalars.
func Summarize(v *models.Volume) Summary {
	if len(v.Scalars) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(v.Scalars, nil)
	return Summary{
		Voxels: len(v.Scalars),
		Min:    floats.Min(v.Scalars),
		Max:    floats.Max(v.Scalars),
		Mean:   mean,
		StdDev: std,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d voxels, min %.1f, max %.1f, mean %.2f, stddev %.2f",
		s.Voxels, s.Min, s.Max, s.Mean, s.StdDev)
}
