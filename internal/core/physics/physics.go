package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-12

// Normalize returns v scaled to unit length. The zero vector stays zero.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Normalize2 is Normalize for a planar (x, z) pair.
func Normalize2(x, z float64) (float64, float64) {
	l := math.Hypot(x, z)
	if l < epsilon {
		return 0, 0
	}
	return x / l, z / l
}

// Distance computes Euclidean distance between two points.
func Distance(a, b mgl64.Vec3) float64 { return b.Sub(a).Len() }

// Vec returns v as a plain array, handy for logging and JSON.
func Vec(v mgl64.Vec3) [3]float64 { return [3]float64{v[0], v[1], v[2]} }
