package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/internal/core/physics"
)

// Contact is the probe that reported penetration.
type Contact struct {
	Vertex int
	Reach  float64
	Hit    Hit
}

// Resolver casts rays from the bounding volume center to each of its vertices
// and reports a collision when an obstacle is nearer than the vertex.
//
// A ray whose origin is already inside an obstacle sees only back faces, which
// front-sided meshes ignore, so deep interpenetration goes unreported.
type Resolver struct {
	volume   *BoundingVolume
	registry *Registry
	logger   log.Log
}

func NewResolver(volume *BoundingVolume, registry *Registry, logger log.Log) *Resolver {
	if volume == nil {
		volume = NewBoundingVolume(DefaultProbeSize, DefaultProbeSegments)
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{volume: volume, registry: registry, logger: logger}
}

func (r *Resolver) Volume() *BoundingVolume { return r.volume }

func (r *Resolver) Registry() *Registry { return r.registry }

// Test reports whether the volume placed at pose penetrates any obstacle.
func (r *Resolver) Test(pose physics.Pose) bool {
	_, colliding := r.Probe(pose)
	return colliding
}

// Probe is Test that also returns the first triggering probe.
// Vertices are checked in their fixed order and the first hit wins.
func (r *Resolver) Probe(pose physics.Pose) (Contact, bool) {
	obstacles := r.registry.Snapshot()
	if len(obstacles) == 0 {
		return Contact{}, false
	}

	r.volume.Sync(pose)
	origin := r.volume.Position()
	world := r.volume.WorldMatrix()

	for i, local := range r.volume.Vertices() {
		global := mgl64.TransformCoordinate(local, world)
		dir := global.Sub(origin)
		reach := dir.Len()
		if reach == 0 {
			continue
		}

		hit, ok := nearest(physics.NewRay(origin, dir), obstacles)
		if ok && hit.Distance < reach {
			c := Contact{Vertex: i, Reach: reach, Hit: hit}
			r.logger.Debug("probe penetration",
				log.Int("vertex", i),
				log.Float64("distance", hit.Distance),
				log.Float64("reach", reach),
				log.String("obstacle", hit.Obstacle),
			)
			return c, true
		}
	}
	return Contact{}, false
}
