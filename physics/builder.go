package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
)

// BodyArgs describes the rigid body half of a spawn.
type BodyArgs struct {
	Mobility Mobility
	Position cp.Vector
	Velocity cp.Vector
	Angle    float64
	Role     Role
}

// DefaultBodyArgs is a dynamic body at rest at the origin.
func DefaultBodyArgs() BodyArgs {
	return BodyArgs{Mobility: Dynamic}
}

// MaterialArgs describes the collider half of a spawn. Role tags the body
// when BodyArgs leaves it as RoleNone.
type MaterialArgs struct {
	Density     float64
	Restitution float64
	Friction    float64
	Sensor      bool
	Role        Role
}

func DefaultMaterial() MaterialArgs {
	return MaterialArgs{Density: 1.0, Restitution: 0.7, Friction: 0.5}
}

func validateMaterial(m Mobility, mat MaterialArgs) error {
	if m == Dynamic && (!(mat.Density > 0) || math.IsInf(mat.Density, 0)) {
		return fmt.Errorf("%w: density %v on a dynamic body", ErrInvalidMaterial, mat.Density)
	}
	if mat.Friction < 0 || mat.Restitution < 0 || math.IsNaN(mat.Friction) || math.IsNaN(mat.Restitution) {
		return fmt.Errorf("%w: friction %v restitution %v", ErrInvalidMaterial, mat.Friction, mat.Restitution)
	}
	return nil
}

// Builder turns declarative descriptors into arena entries.
type Builder struct {
	world *World
}

func NewBuilder(w *World) *Builder {
	return &Builder{world: w}
}

// Spawn inserts one body carrying one shape.
func (b *Builder) Spawn(body BodyArgs, mat MaterialArgs, shape Shape) (EntityHandle, error) {
	if b == nil {
		return EntityHandle{}, ErrInvalidHandle
	}
	return b.world.Insert(body, mat, shape)
}

// SpawnCompound inserts one body whose shape is made of parts at fixed
// offsets. The parts share the material and rotate with the body.
func (b *Builder) SpawnCompound(body BodyArgs, mat MaterialArgs, parts ...Part) (EntityHandle, error) {
	return b.Spawn(body, mat, Compound{Parts: parts})
}

// SpawnRect turns an axis-aligned rectangle into a fixed wall box.
func (b *Builder) SpawnRect(r common.Rect, mat MaterialArgs) (EntityHandle, error) {
	hx, hy := r.HalfExtents()
	cx, cy := r.Center()
	return b.Spawn(
		BodyArgs{Mobility: Fixed, Position: cp.Vector{X: cx, Y: cy}, Role: RoleWall},
		mat,
		Box{HalfExtents: cp.Vector{X: hx, Y: hy}},
	)
}
