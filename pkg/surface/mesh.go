package surface

import (
	"github.com/unixpickle/model3d/model3d"

	"ctslicesto3d/pkg/stl"
)

// Mesh is an immutable triangle surface. Vertices are identified by their
// single precision coordinates, which is what an exported file stores.
type Mesh struct {
	tris  []stl.Triangle
	verts [][3]float32
	faces [][3]int
}

// Shell is one edge-connected component of a mesh.
type Shell struct {
	Triangles int
	// Closed is true when every edge of the shell borders exactly two
	// triangles.
	Closed bool
}

type edge [2]int

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

func newMesh(m *model3d.Mesh) *Mesh {
	src := m.TriangleSlice()
	out := &Mesh{
		tris:  make([]stl.Triangle, 0, len(src)),
		faces: make([][3]int, 0, len(src)),
	}
	index := make(map[[3]float32]int)
	for _, t := range src {
		var face [3]int
		var pts [3][3]float32
		for i, c := range t {
			p := [3]float32{float32(c.X), float32(c.Y), float32(c.Z)}
			idx, ok := index[p]
			if !ok {
				idx = len(out.verts)
				out.verts = append(out.verts, p)
				index[p] = idx
			}
			face[i] = idx
			pts[i] = p
		}
		n := t.Normal()
		out.tris = append(out.tris, stl.Triangle{
			Normal:  [3]float32{float32(n.X), float32(n.Y), float32(n.Z)},
			Vertex1: pts[0],
			Vertex2: pts[1],
			Vertex3: pts[2],
		})
		out.faces = append(out.faces, face)
	}
	return out
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.tris)
}

// VertexCount returns the number of distinct vertex positions.
func (m *Mesh) VertexCount() int {
	return len(m.verts)
}

// Triangles returns the facets ready for export. The slice must not be
// modified.
func (m *Mesh) Triangles() []stl.Triangle {
	return m.tris
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh has zero bounds.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if len(m.verts) == 0 {
		return min, max
	}
	min, max = m.verts[0], m.verts[0]
	for _, v := range m.verts[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// Shells splits the mesh into components of triangles that share an edge.
func (m *Mesh) Shells() []Shell {
	parent := make([]int, len(m.faces))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owners := make(map[edge][]int)
	for ti, f := range m.faces {
		for k := 0; k < 3; k++ {
			e := newEdge(f[k], f[(k+1)%3])
			owners[e] = append(owners[e], ti)
		}
	}
	for _, ts := range owners {
		for _, t := range ts[1:] {
			if a, b := find(ts[0]), find(t); a != b {
				parent[a] = b
			}
		}
	}

	byRoot := make(map[int]int)
	var shells []Shell
	for ti := range m.faces {
		r := find(ti)
		si, ok := byRoot[r]
		if !ok {
			si = len(shells)
			byRoot[r] = si
			shells = append(shells, Shell{Closed: true})
		}
		shells[si].Triangles++
	}
	for _, ts := range owners {
		if len(ts) != 2 {
			shells[byRoot[find(ts[0])]].Closed = false
		}
	}
	return shells
}

// ClosedShells counts the shells with no open or over-shared edge.
func (m *Mesh) ClosedShells() int {
	n := 0
	for _, s := range m.Shells() {
		if s.Closed {
			n++
		}
	}
	return n
}
