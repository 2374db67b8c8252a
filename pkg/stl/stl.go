// Package stl reads and writes binary STL files.
package stl

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Triangle is one facet of a binary STL file.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// FacetNormal computes the unit normal of the triangle from its winding.
// Degenerate triangles get a zero normal.
func (t Triangle) FacetNormal() [3]float32 {
	ax, ay, az := t.Vertex2[0]-t.Vertex1[0], t.Vertex2[1]-t.Vertex1[1], t.Vertex2[2]-t.Vertex1[2]
	bx, by, bz := t.Vertex3[0]-t.Vertex1[0], t.Vertex3[1]-t.Vertex1[1], t.Vertex3[2]-t.Vertex1[2]
	nx, ny, nz := ay*bz-az*by, az*bx-ax*bz, ax*by-ay*bx
	l := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{nx / l, ny / l, nz / l}
}

// Mesh is an indexed mesh decoded from an STL file. Identical vertex
// coordinates are merged and Verts is sorted by x, then y, then z.
type Mesh struct {
	Verts [][3]float32
	Tris  [][3]int
}

func toCoord(v [3]float32) model3d.Coord3D {
	return model3d.Coord3D{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

func fromCoord(c model3d.Coord3D) [3]float32 {
	return [3]float32{float32(c.X), float32(c.Y), float32(c.Z)}
}

// WriteSTL encodes triangles as binary STL. Facet normals are recomputed
// from the vertex winding.
func WriteSTL(w io.Writer, tris []Triangle) error {
	ts := make([]*model3d.Triangle, len(tris))
	for i, t := range tris {
		ts[i] = &model3d.Triangle{toCoord(t.Vertex1), toCoord(t.Vertex2), toCoord(t.Vertex3)}
	}
	return model3d.WriteSTL(w, ts)
}

// SaveToSTL writes triangles to a binary STL file at path, replacing any
// existing file.
func SaveToSTL(path string, tris []Triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create stl file")
	}
	if err := WriteSTL(f, tris); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close stl file")
}

// ReadSTL decodes a binary STL stream into an indexed mesh. Triangles keep
// their order in the file.
func ReadSTL(r io.Reader) (*Mesh, error) {
	ts, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, err
	}

	coords := model3d.NewMeshTriangles(ts).VertexSlice()
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	m := &Mesh{
		Verts: make([][3]float32, len(coords)),
		Tris:  make([][3]int, len(ts)),
	}
	index := make(map[model3d.Coord3D]int, len(coords))
	for i, c := range coords {
		m.Verts[i] = fromCoord(c)
		index[c] = i
	}
	for i, t := range ts {
		for v, c := range t {
			m.Tris[i][v] = index[c]
		}
	}
	return m, nil
}

// LoadSTL reads a binary STL file from disk.
func LoadSTL(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open stl file")
	}
	defer f.Close()
	return ReadSTL(bufio.NewReader(f))
}
