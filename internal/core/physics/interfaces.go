package physics

import "github.com/go-gl/mathgl/mgl64"

// Lightweight spatial types shared by the camera, the integrator and the
// collision probes. Math is delegated to mgl64.

// Pose is a rigid transform: position plus orientation.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Transform provides spatial information for anything that can be probed.
type Transform interface {
	Pose() Pose
}

// IdentityPose is a pose at the origin facing -Z.
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// Matrix returns the world matrix T * R (unit scale).
func (p Pose) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).Mul4(p.Orientation.Normalize().Mat4())
}

// Ray is a half line. Direction is kept unit length by NewRay.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{Origin: origin, Direction: Normalize(direction)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
