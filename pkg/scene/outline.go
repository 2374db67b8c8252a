package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"ctslicesto3d/internal/models"
)

// Outline is the wireframe box around a volume's physical bounds.
type Outline struct {
	Corners [8]r3.Vec
	Edges   [12][2]int
}

// boxEdges indexes corners numbered by their bits: bit 0 selects max x,
// bit 1 max y, bit 2 max z.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along x
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along z
}

// OutlineOf returns the box spanning the physical bounds of v.
func OutlineOf(v *models.Volume) Outline {
	lo, hi := v.Bounds()
	return NewOutline(r3.Vec{X: lo[0], Y: lo[1], Z: lo[2]}, r3.Vec{X: hi[0], Y: hi[1], Z: hi[2]})
}

// NewOutline builds the box between min and max.
func NewOutline(min, max r3.Vec) Outline {
	o := Outline{Edges: boxEdges}
	for i := range o.Corners {
		c := min
		if i&1 != 0 {
			c.X = max.X
		}
		if i&2 != 0 {
			c.Y = max.Y
		}
		if i&4 != 0 {
			c.Z = max.Z
		}
		o.Corners[i] = c
	}
	return o
}

// Segments returns the 12 edges as start and end points.
func (o Outline) Segments() [][2]r3.Vec {
	out := make([][2]r3.Vec, len(o.Edges))
	for i, e := range o.Edges {
		out[i] = [2]r3.Vec{o.Corners[e[0]], o.Corners[e[1]]}
	}
	return out
}

// Center returns the midpoint of the box.
func (o Outline) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(o.Corners[0], o.Corners[7]))
}

// Diagonal returns the length of the box diagonal.
func (o Outline) Diagonal() float64 {
	return r3.Norm(r3.Sub(o.Corners[7], o.Corners[0]))
}
