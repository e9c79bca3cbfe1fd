package collision

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/zeusync/fpnav/internal/core/physics"
)

var (
	ErrNoTriangles   = errors.New("mesh has no triangles")
	ErrBadIndex      = errors.New("triangle index out of range")
	ErrInvalidExtent = errors.New("box size must be positive")
)

// Obstacle is anything a probe ray can hit. Raycast returns the nearest hit
// in front of the ray origin.
type Obstacle interface {
	ID() string
	Name() string
	Raycast(ray physics.Ray) (Hit, bool)
}

// Hit describes where a ray met an obstacle.
type Hit struct {
	Distance float64
	Point    mgl64.Vec3
	Obstacle string
}

// Side selects which triangle faces a ray can hit.
type Side uint8

const (
	// SideFront hits only faces whose counter-clockwise winding faces the ray.
	// A ray starting inside a closed mesh therefore reports nothing.
	SideFront Side = iota
	SideBack
	SideDouble
)

type triangle struct {
	a, b, c mgl64.Vec3
}

// Mesh is a static triangle soup placed in the world by a transform.
// World-space triangles are computed once at construction.
type Mesh struct {
	id        string
	name      string
	side      Side
	triangles []triangle
}

var _ Obstacle = (*Mesh)(nil)

// NewMesh builds a mesh from local vertices, index triples and a world transform.
func NewMesh(name string, vertices []mgl64.Vec3, indices [][3]int, transform mgl64.Mat4, side Side) (*Mesh, error) {
	if len(indices) == 0 {
		return nil, ErrNoTriangles
	}
	world := make([]mgl64.Vec3, len(vertices))
	for i, v := range vertices {
		world[i] = mgl64.TransformCoordinate(v, transform)
	}
	tris := make([]triangle, 0, len(indices))
	for _, idx := range indices {
		for _, i := range idx {
			if i < 0 || i >= len(world) {
				return nil, ErrBadIndex
			}
		}
		tris = append(tris, triangle{a: world[idx[0]], b: world[idx[1]], c: world[idx[2]]})
	}
	return &Mesh{
		id:        uuid.NewString(),
		name:      name,
		side:      side,
		triangles: tris,
	}, nil
}

// NewBox builds an axis-aligned box of the given size, centered on the origin
// of transform, with outward facing triangles.
func NewBox(name string, size mgl64.Vec3, transform mgl64.Mat4, side Side) (*Mesh, error) {
	if size.X() <= 0 || size.Y() <= 0 || size.Z() <= 0 {
		return nil, ErrInvalidExtent
	}
	half := size.Mul(0.5)
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	vertices := make([]mgl64.Vec3, 0, 24)
	indices := make([][3]int, 0, 12)
	for i := 0; i < 3; i++ {
		for _, sign := range [2]float64{1, -1} {
			// u x v points along the outward normal
			u := axes[(i+1)%3].Mul(half[(i+1)%3])
			v := axes[(i+2)%3].Mul(half[(i+2)%3])
			if sign < 0 {
				u, v = v, u
			}
			center := axes[i].Mul(sign * half[i])
			base := len(vertices)
			vertices = append(vertices,
				center.Sub(u).Sub(v),
				center.Add(u).Sub(v),
				center.Add(u).Add(v),
				center.Sub(u).Add(v),
			)
			indices = append(indices, [3]int{base, base + 1, base + 2}, [3]int{base, base + 2, base + 3})
		}
	}
	return NewMesh(name, vertices, indices, transform, side)
}

func (m *Mesh) ID() string   { return m.id }
func (m *Mesh) Name() string { return m.name }
func (m *Mesh) Side() Side   { return m.side }

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int { return len(m.triangles) }

func (m *Mesh) Raycast(ray physics.Ray) (Hit, bool) {
	best := math.Inf(1)
	for _, tri := range m.triangles {
		if t, ok := intersectTriangle(ray, tri, m.side); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return Hit{}, false
	}
	return Hit{Distance: best, Point: ray.At(best), Obstacle: m.name}, true
}

const parallelEpsilon = 1e-12

// intersectTriangle is Möller–Trumbore with optional face culling.
func intersectTriangle(ray physics.Ray, tri triangle, side Side) (float64, bool) {
	edge1 := tri.b.Sub(tri.a)
	edge2 := tri.c.Sub(tri.a)
	pvec := ray.Direction.Cross(edge2)
	det := edge1.Dot(pvec)

	switch side {
	case SideFront:
		if det < parallelEpsilon {
			return 0, false
		}
	case SideBack:
		if det > -parallelEpsilon {
			return 0, false
		}
	default:
		if math.Abs(det) < parallelEpsilon {
			return 0, false
		}
	}

	invDet := 1 / det
	tvec := ray.Origin.Sub(tri.a)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := tvec.Cross(edge1)
	v := ray.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := edge2.Dot(qvec) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Group is an ordered set of obstacles raycast as one, like a loaded asset's
// collision node.
type Group struct {
	id       string
	name     string
	children []Obstacle
}

var _ Obstacle = (*Group)(nil)

func NewGroup(name string, children ...Obstacle) *Group {
	kept := make([]Obstacle, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Group{id: uuid.NewString(), name: name, children: kept}
}

func (g *Group) ID() string   { return g.id }
func (g *Group) Name() string { return g.name }

func (g *Group) Children() []Obstacle { return g.children }

func (g *Group) Raycast(ray physics.Ray) (Hit, bool) {
	return nearest(ray, g.children)
}

func nearest(ray physics.Ray, obstacles []Obstacle) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	for _, o := range obstacles {
		h, ok := o.Raycast(ray)
		if ok && (!found || h.Distance < best.Distance) {
			best, found = h, true
		}
	}
	return best, found
}
