// Package render displays scenes in an interactive raylib window.
package render

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"ctslicesto3d/pkg/scene"
	"ctslicesto3d/pkg/stl"
)

// viewExtent is the length the outline diagonal is scaled to, keeping
// any dataset well inside the default clipping planes.
const viewExtent = 10

// Window renders a scene in a fixed size window with an orbit camera:
// drag with the left button to rotate, scroll to zoom. Render blocks until
// the window is closed.
type Window struct {
	FPS int32

	log *logrus.Logger
}

// NewWindow creates a window renderer.
func NewWindow(log *logrus.Logger) *Window {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Window{FPS: 60, log: log}
}

// view maps physical coordinates into a unit-sized frame centered on the
// outline.
type view struct {
	center r3.Vec
	scale  float64
}

func newView(o scene.Outline) view {
	v := view{center: o.Center(), scale: 1}
	if d := o.Diagonal(); d > 0 {
		v.scale = viewExtent / d
	}
	return v
}

func (v view) point(p r3.Vec) rl.Vector3 {
	q := r3.Scale(v.scale, r3.Sub(p, v.center))
	return rl.NewVector3(float32(q.X), float32(q.Y), float32(q.Z))
}

func (v view) vertex(p [3]float32) rl.Vector3 {
	return v.point(r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])})
}

// meshArrays holds the unindexed vertex buffers of a surface actor.
type meshArrays struct {
	vertices []float32
	normals  []float32
	colors   []uint8
}

// bake flattens triangles into vertex buffers with a fixed directional
// light folded into the vertex colours.
func bake(tris []stl.Triangle, v view, base color.RGBA) meshArrays {
	n := len(tris) * 3
	a := meshArrays{
		vertices: make([]float32, 0, n*3),
		normals:  make([]float32, 0, n*3),
		colors:   make([]uint8, 0, n*4),
	}
	light := r3.Unit(r3.Vec{X: -0.5, Y: -1, Z: -0.5})
	for _, t := range tris {
		nrm := t.FacetNormal()
		nv := r3.Vec{X: float64(nrm[0]), Y: float64(nrm[1]), Z: float64(nrm[2])}
		// 30% ambient floor
		k := math.Max(0.3, -r3.Dot(nv, light))
		r := uint8(float64(base.R) * k)
		g := uint8(float64(base.G) * k)
		b := uint8(float64(base.B) * k)
		for _, p := range [3][3]float32{t.Vertex1, t.Vertex2, t.Vertex3} {
			q := v.vertex(p)
			a.vertices = append(a.vertices, q.X, q.Y, q.Z)
			a.normals = append(a.normals, nrm[0], nrm[1], nrm[2])
			a.colors = append(a.colors, r, g, b, base.A)
		}
	}
	return a
}

// orbit tracks the camera angles and distance around the origin.
type orbit struct {
	angleX   float32
	angleY   float32
	distance float32
}

func (o orbit) position() rl.Vector3 {
	ax, ay := float64(o.angleX), float64(o.angleY)
	return rl.NewVector3(
		o.distance*float32(math.Cos(ax)*math.Sin(ay)),
		o.distance*float32(math.Sin(ax)),
		o.distance*float32(math.Cos(ax)*math.Cos(ay)),
	)
}

func (o *orbit) drag(dx, dy float32) {
	o.angleY += dx * 0.01
	o.angleX -= dy * 0.01
	if o.angleX > 1.5 {
		o.angleX = 1.5
	}
	if o.angleX < -1.5 {
		o.angleX = -1.5
	}
}

func (o *orbit) zoom(wheel float32) {
	o.distance *= 1 - wheel*0.05
	if o.distance < 1 {
		o.distance = 1
	}
}

// Render opens the window and draws s until the user closes it.
func (w *Window) Render(s *scene.Scene) error {
	width, height := s.Size()
	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(int32(width), int32(height), s.Title())
	if !rl.IsWindowReady() {
		return errors.New("open render window")
	}
	defer rl.CloseWindow()
	rl.SetTargetFPS(w.FPS)

	v := newView(s.Outline())

	var meshes []rl.Mesh
	var segments [][2]rl.Vector3
	var lineColor color.RGBA
	for _, a := range s.Actors() {
		switch a.Kind {
		case scene.Surface:
			if len(a.Triangles) == 0 {
				w.log.Warnf("actor %s has no triangles", a.Name)
				continue
			}
			arr := bake(a.Triangles, v, a.Color)
			mesh := rl.Mesh{
				VertexCount:   int32(len(arr.vertices) / 3),
				TriangleCount: int32(len(a.Triangles)),
				Vertices:      &arr.vertices[0],
				Normals:       &arr.normals[0],
				Colors:        &arr.colors[0],
			}
			rl.UploadMesh(&mesh, false)
			meshes = append(meshes, mesh)
		case scene.Wireframe:
			lineColor = a.Color
			for _, seg := range a.Outline.Segments() {
				segments = append(segments, [2]rl.Vector3{v.point(seg[0]), v.point(seg[1])})
			}
		}
	}
	defer func() {
		for i := range meshes {
			rl.UnloadMesh(&meshes[i])
		}
	}()

	material := rl.LoadMaterialDefault()
	defer rl.UnloadMaterial(material)

	cam := orbit{angleX: 0.3, angleY: 0.3, distance: viewExtent * 1.5}
	camera := rl.Camera3D{
		Position:   cam.position(),
		Target:     rl.NewVector3(0, 0, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
	w.log.Debugf("window %dx%d, %d meshes, %d outline segments", width, height, len(meshes), len(segments))

	for !rl.WindowShouldClose() {
		if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			d := rl.GetMouseDelta()
			cam.drag(d.X, d.Y)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			cam.zoom(wheel)
		}
		camera.Position = cam.position()

		rl.BeginDrawing()
		rl.ClearBackground(s.Background())
		rl.BeginMode3D(camera)
		for _, m := range meshes {
			rl.DrawMesh(m, material, rl.MatrixIdentity())
		}
		for _, seg := range segments {
			rl.DrawLine3D(seg[0], seg[1], lineColor)
		}
		rl.EndMode3D()
		rl.EndDrawing()
	}
	return nil
}
