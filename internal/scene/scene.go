package scene

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/fpnav/internal/core/collision"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownType = errors.New("unknown obstacle type")
	ErrUnknownSide = errors.New("unknown face side")
	ErrMissingName = errors.New("obstacle needs a name")
)

// Scene is a parsed obstacle description.
type Scene struct {
	Obstacles []Spec `yaml:"obstacles"`

	// Digest is the xxhash of the raw document, for telling scene revisions apart in logs.
	Digest uint64 `yaml:"-"`
}

// Spec describes one obstacle. Type selects which fields apply:
// box uses Size; mesh uses Vertices and Triangles; group uses Children.
type Spec struct {
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	Position  [3]float64   `yaml:"position"`
	RotationY float64      `yaml:"rotation_y"`
	Side      string       `yaml:"side"`
	Size      [3]float64   `yaml:"size"`
	Vertices  [][3]float64 `yaml:"vertices"`
	Triangles [][3]int     `yaml:"triangles"`
	Children  []Spec       `yaml:"children"`
}

// Parse reads a YAML scene document.
func Parse(r io.Reader) (*Scene, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	s.Digest = xxhash.Sum64(raw)
	return &s, nil
}

// Build turns a spec into a collidable obstacle.
func Build(spec Spec) (collision.Obstacle, error) {
	if spec.Name == "" {
		return nil, ErrMissingName
	}
	side, err := parseSide(spec.Side)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	transform := mgl64.Translate3D(spec.Position[0], spec.Position[1], spec.Position[2]).
		Mul4(mgl64.HomogRotate3DY(spec.RotationY))

	switch strings.ToLower(spec.Type) {
	case "", "box":
		box, err := collision.NewBox(spec.Name, mgl64.Vec3(spec.Size), transform, side)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		return box, nil
	case "mesh":
		vertices := make([]mgl64.Vec3, len(spec.Vertices))
		for i, v := range spec.Vertices {
			vertices[i] = mgl64.Vec3(v)
		}
		mesh, err := collision.NewMesh(spec.Name, vertices, spec.Triangles, transform, side)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		return mesh, nil
	case "group":
		children := make([]collision.Obstacle, 0, len(spec.Children))
		for _, c := range spec.Children {
			// children are placed relative to the group
			c.Position = [3]float64(mgl64.TransformCoordinate(mgl64.Vec3(c.Position), transform))
			c.RotationY += spec.RotationY
			child, err := Build(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", spec.Name, err)
			}
			children = append(children, child)
		}
		return collision.NewGroup(spec.Name, children...), nil
	default:
		return nil, fmt.Errorf("%s: %w %q", spec.Name, ErrUnknownType, spec.Type)
	}
}

func parseSide(s string) (collision.Side, error) {
	switch strings.ToLower(s) {
	case "", "front":
		return collision.SideFront, nil
	case "back":
		return collision.SideBack, nil
	case "double":
		return collision.SideDouble, nil
	default:
		return collision.SideFront, fmt.Errorf("%w %q", ErrUnknownSide, s)
	}
}
