// Package scene describes what the 3D view shows, independent of any
// window system.
package scene

import (
	"image/color"

	"github.com/pkg/errors"

	"ctslicesto3d/pkg/stl"
	"ctslicesto3d/pkg/surface"
)

const (
	DefaultWidth  = 700
	DefaultHeight = 700
)

// ActorKind selects how an actor is drawn.
type ActorKind int

const (
	// Surface actors draw filled triangles.
	Surface ActorKind = iota
	// Wireframe actors draw line segments.
	Wireframe
)

func (k ActorKind) String() string {
	switch k {
	case Surface:
		return "surface"
	case Wireframe:
		return "wireframe"
	}
	return "unknown"
}

// Actor is one drawable element of a scene.
type Actor struct {
	Name  string
	Kind  ActorKind
	Color color.RGBA

	// Triangles is set for Surface actors.
	Triangles []stl.Triangle
	// Outline is set for Wireframe actors.
	Outline Outline
}

// Options configures the view.
type Options struct {
	Width  int
	Height int
	Title  string
}

// Scene is an immutable description of a render: a surface mesh plus the
// outline of the volume it came from.
type Scene struct {
	background color.RGBA
	width      int
	height     int
	title      string
	actors     []Actor
	outline    Outline
}

// Renderer displays a scene. Implementations may block until the user
// dismisses the view.
type Renderer interface {
	Render(s *Scene) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(s *Scene) error

// Render calls f(s).
func (f RendererFunc) Render(s *Scene) error { return f(s) }

// Build assembles the scene: black background, a white surface actor for
// the mesh and a white wireframe actor for the outline.
func Build(mesh *surface.Mesh, outline Outline, opts Options) (*Scene, error) {
	if mesh == nil {
		return nil, errors.New("build scene: nil mesh")
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, errors.Errorf("build scene: invalid window size %dx%d", opts.Width, opts.Height)
	}
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	return &Scene{
		background: color.RGBA{A: 255},
		width:      opts.Width,
		height:     opts.Height,
		title:      opts.Title,
		outline:    outline,
		actors: []Actor{
			{Name: "surface", Kind: Surface, Color: white, Triangles: mesh.Triangles()},
			{Name: "outline", Kind: Wireframe, Color: white, Outline: outline},
		},
	}, nil
}

// Background returns the clear colour.
func (s *Scene) Background() color.RGBA { return s.background }

// Size returns the window size in pixels.
func (s *Scene) Size() (width, height int) { return s.width, s.height }

// Title returns the window title.
func (s *Scene) Title() string { return s.title }

// Outline returns the volume outline, used to frame the camera.
func (s *Scene) Outline() Outline { return s.outline }

// Actors returns a copy of the actor list.
func (s *Scene) Actors() []Actor {
	out := make([]Actor, len(s.actors))
	copy(out, s.actors)
	return out
}
