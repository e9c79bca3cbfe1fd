package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/physics"
)

const (
	DefaultProbeSize     = 1.2
	DefaultProbeSegments = 2
)

// BoundingVolume is a subdivided cube whose surface vertices are the ray
// targets of a probe. It follows a pose but owns nothing else.
type BoundingVolume struct {
	size     float64
	segments int
	vertices []mgl64.Vec3
	pose     physics.Pose
}

// NewBoundingVolume builds a cube of edge length size split into segments per
// edge. The vertex set is every lattice point on the cube surface, ordered by
// x, then y, then z. Size 1.2 with 2 segments yields 26 vertices.
func NewBoundingVolume(size float64, segments int) *BoundingVolume {
	if size <= 0 {
		size = DefaultProbeSize
	}
	if segments < 1 {
		segments = DefaultProbeSegments
	}
	half := size / 2
	step := size / float64(segments)

	var vertices []mgl64.Vec3
	for i := 0; i <= segments; i++ {
		for j := 0; j <= segments; j++ {
			for k := 0; k <= segments; k++ {
				onSurface := i == 0 || i == segments || j == 0 || j == segments || k == 0 || k == segments
				if !onSurface {
					continue
				}
				vertices = append(vertices, mgl64.Vec3{
					-half + float64(i)*step,
					-half + float64(j)*step,
					-half + float64(k)*step,
				})
			}
		}
	}
	return &BoundingVolume{
		size:     size,
		segments: segments,
		vertices: vertices,
		pose:     physics.IdentityPose(),
	}
}

func (b *BoundingVolume) Size() float64 { return b.size }

// Vertices returns the local-space vertices. Callers must not modify them.
func (b *BoundingVolume) Vertices() []mgl64.Vec3 { return b.vertices }

// Sync moves the volume onto pose.
func (b *BoundingVolume) Sync(pose physics.Pose) { b.pose = pose }

func (b *BoundingVolume) Pose() physics.Pose { return b.pose }

func (b *BoundingVolume) Position() mgl64.Vec3 { return b.pose.Position }

func (b *BoundingVolume) WorldMatrix() mgl64.Mat4 { return b.pose.Matrix() }

// WorldVertices returns the vertices transformed by the current world matrix.
func (b *BoundingVolume) WorldVertices() []mgl64.Vec3 {
	m := b.WorldMatrix()
	out := make([]mgl64.Vec3, len(b.vertices))
	for i, v := range b.vertices {
		out[i] = mgl64.TransformCoordinate(v, m)
	}
	return out
}
