// Package surface extracts triangle meshes from labelled volumes.
package surface

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"ctslicesto3d/internal/models"
)

// voxelSolid exposes a labelled volume as a model3d.Solid in index space.
// A point is inside when the nearest voxel carries the label.
type voxelSolid struct {
	vol   *models.Volume
	dims  [3]int
	label float64
}

// Min gets the minimum of the bounding box.
func (v *voxelSolid) Min() model3d.Coord3D {
	return model3d.Coord3D{}
}

// Max gets the maximum of the bounding box.
func (v *voxelSolid) Max() model3d.Coord3D {
	return model3d.Coord3D{
		X: float64(v.dims[0] - 1),
		Y: float64(v.dims[1] - 1),
		Z: float64(v.dims[2] - 1),
	}
}

// Contains checks if the voxel nearest to c has the label.
func (v *voxelSolid) Contains(c model3d.Coord3D) bool {
	x := int(math.Round(c.X))
	y := int(math.Round(c.Y))
	z := int(math.Round(c.Z))
	if x < 0 || y < 0 || z < 0 || x >= v.dims[0] || y >= v.dims[1] || z >= v.dims[2] {
		return false
	}
	return v.vol.Scalars[x+v.dims[0]*(y+v.dims[1]*z)] == v.label
}

// Extract builds the isosurface around every voxel equal to isovalue.
// Sampling happens on the voxel grid itself, so vertices fall midway
// between a labelled voxel and its unlabelled neighbour. The mesh is
// returned in physical coordinates.
func Extract(vol *models.Volume, isovalue float64) (*Mesh, error) {
	if !vol.Extent.Valid() {
		return nil, errors.Errorf("extract surface: empty extent %s", vol.Extent)
	}
	dims := vol.Dims()
	if len(vol.Scalars) != dims[0]*dims[1]*dims[2] {
		return nil, errors.Errorf("extract surface: %d scalars for dims %v", len(vol.Scalars), dims)
	}

	solid := &voxelSolid{vol: vol, dims: dims, label: isovalue}
	mesh := model3d.MarchingCubes(solid, 1)

	origin, spacing := vol.Origin, vol.Spacing
	base := [3]float64{float64(vol.Extent[0]), float64(vol.Extent[2]), float64(vol.Extent[4])}
	mesh = mesh.MapCoords(func(c model3d.Coord3D) model3d.Coord3D {
		return model3d.Coord3D{
			X: origin[0] + (base[0]+c.X)*spacing[0],
			Y: origin[1] + (base[1]+c.Y)*spacing[1],
			Z: origin[2] + (base[2]+c.Z)*spacing[2],
		}
	})
	return newMesh(mesh), nil
}
