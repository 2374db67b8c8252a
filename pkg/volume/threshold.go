package volume

import (
	"ctslicesto3d/internal/models"
)

// Threshold binarizes a volume around a cutoff. Values strictly below
// Cutoff are replaced with InValue; values at or above it with OutValue.
type Threshold struct {
	Cutoff   float64
	InValue  float64
	OutValue float64
}

// BoneThreshold is the fixed cutoff used to separate bone from soft tissue.
var BoneThreshold = Threshold{Cutoff: 386, InValue: 0, OutValue: 1}

// Classify maps a single value.
func (t Threshold) Classify(v float64) float64 {
	if v < t.Cutoff {
		return t.InValue
	}
	return t.OutValue
}

// Apply returns a new volume with every scalar classified. The source
// volume is not modified.
func (t Threshold) Apply(v *models.Volume) *models.Volume {
	out := make([]float64, len(v.Scalars))
	for i, s := range v.Scalars {
		out[i] = t.Classify(s)
	}
	return v.WithScalars(out)
}

// Count returns how many scalars equal value.
func Count(v *models.Volume, value float64) int {
	n := 0
	for _, s := range v.Scalars {
		if s == value {
			n++
		}
	}
	return n
}
