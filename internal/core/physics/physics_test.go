package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, Normalize(mgl64.Vec3{}))

	x, z := Normalize2(0, 0)
	assert.Zero(t, x)
	assert.Zero(t, z)
}

func TestNormalizeDiagonal(t *testing.T) {
	x, z := Normalize2(1, 1)
	assert.InDelta(t, math.Sqrt2/2, x, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, z, 1e-12)
	assert.InDelta(t, 1, math.Hypot(x, z), 1e-12)

	v := Normalize(mgl64.Vec3{0, 3, 4})
	assert.InDelta(t, 1, v.Len(), 1e-12)
	assert.InDelta(t, 0.6, v.Y(), 1e-12)
}

func TestPoseMatrix(t *testing.T) {
	p := Pose{
		Position:    mgl64.Vec3{1, 2, 3},
		Orientation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
	}
	got := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, p.Matrix())
	// +X rotated a quarter turn about Y lands on -Z
	assert.InDelta(t, 1, got.X(), 1e-9)
	assert.InDelta(t, 2, got.Y(), 1e-9)
	assert.InDelta(t, 2, got.Z(), 1e-9)

	assert.True(t, IdentityPose().Matrix().ApproxEqual(mgl64.Ident4()))
}

func TestRayAt(t *testing.T) {
	r := NewRay(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, -5})
	assert.InDelta(t, 1, r.Direction.Len(), 1e-12)
	assert.Equal(t, mgl64.Vec3{0, 1, -2}, r.At(2))
}
