package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

var (
	ErrInvalidShape    = errors.New("physics: invalid shape")
	ErrInvalidMaterial = errors.New("physics: invalid material")
)

// ShapeKind tags the variant stored in a shape record.
type ShapeKind uint8

const (
	KindBall ShapeKind = iota + 1
	KindBox
	KindTriangle
	KindCompound
)

func (k ShapeKind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindBox:
		return "box"
	case KindTriangle:
		return "triangle"
	case KindCompound:
		return "compound"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Shape is one of Ball, Box, Triangle or Compound. The set is closed: the
// unexported method keeps other packages from adding variants.
type Shape interface {
	Kind() ShapeKind
	localBounds() (center cp.Vector, radius float64)
}

// Ball is a circle centered on its local origin.
type Ball struct {
	Radius float64
}

// Box is an axis-aligned rectangle (in body space) centered on its local origin.
type Box struct {
	HalfExtents cp.Vector
}

// Triangle is given by three points in body space.
type Triangle struct {
	A, B, C cp.Vector
}

// Part places a primitive at a fixed offset from the parent body origin.
// Parts carry no rotation of their own.
type Part struct {
	Offset cp.Vector
	Shape  Shape
}

// Compound groups primitives attached to one body.
type Compound struct {
	Parts []Part
}

func (Ball) Kind() ShapeKind     { return KindBall }
func (Box) Kind() ShapeKind      { return KindBox }
func (Triangle) Kind() ShapeKind { return KindTriangle }
func (Compound) Kind() ShapeKind { return KindCompound }

func (s Ball) localBounds() (cp.Vector, float64) {
	return cp.Vector{}, s.Radius
}

func (s Box) localBounds() (cp.Vector, float64) {
	return cp.Vector{}, s.HalfExtents.Length()
}

func (s Triangle) localBounds() (cp.Vector, float64) {
	c := s.A.Add(s.B).Add(s.C).Mult(1.0 / 3.0)
	r := math.Max(c.Distance(s.A), math.Max(c.Distance(s.B), c.Distance(s.C)))
	return c, r
}

func (s Compound) localBounds() (cp.Vector, float64) {
	if len(s.Parts) == 0 {
		return cp.Vector{}, 0
	}
	var bb cp.BB
	for i, p := range s.Parts {
		c, r := p.Shape.localBounds()
		part := cp.NewBBForCircle(p.Offset.Add(c), r)
		if i == 0 {
			bb = part
			continue
		}
		bb = bb.Merge(part)
	}
	center := bb.Center()
	radius := 0.0
	for _, p := range s.Parts {
		c, r := p.Shape.localBounds()
		radius = math.Max(radius, center.Distance(p.Offset.Add(c))+r)
	}
	return center, radius
}

// Area returns the geometric area of the shape.
func Area(s Shape) float64 {
	switch v := s.(type) {
	case Ball:
		return math.Pi * v.Radius * v.Radius
	case Box:
		return 4 * v.HalfExtents.X * v.HalfExtents.Y
	case Triangle:
		return math.Abs(v.B.Sub(v.A).Cross(v.C.Sub(v.A))) / 2
	case Compound:
		total := 0.0
		for _, p := range v.Parts {
			total += Area(p.Shape)
		}
		return total
	default:
		return 0
	}
}

// ValidateShape rejects descriptors the simulation cannot give a positive
// area, and compounds nested inside compounds.
func ValidateShape(s Shape) error {
	switch v := s.(type) {
	case Ball:
		if !(v.Radius > 0) || math.IsInf(v.Radius, 0) {
			return fmt.Errorf("%w: ball radius %v", ErrInvalidShape, v.Radius)
		}
	case Box:
		if !(v.HalfExtents.X > 0) || !(v.HalfExtents.Y > 0) || math.IsInf(v.HalfExtents.X, 0) || math.IsInf(v.HalfExtents.Y, 0) {
			return fmt.Errorf("%w: box half extents %v", ErrInvalidShape, v.HalfExtents)
		}
	case Triangle:
		if !(Area(v) > 1e-9) {
			return fmt.Errorf("%w: degenerate triangle", ErrInvalidShape)
		}
	case Compound:
		if len(v.Parts) == 0 {
			return fmt.Errorf("%w: empty compound", ErrInvalidShape)
		}
		for i, p := range v.Parts {
			if p.Shape == nil {
				return fmt.Errorf("%w: compound part %d is nil", ErrInvalidShape, i)
			}
			if _, nested := p.Shape.(Compound); nested {
				return fmt.Errorf("%w: compound part %d is a compound", ErrInvalidShape, i)
			}
			if err := ValidateShape(p.Shape); err != nil {
				return fmt.Errorf("compound part %d: %w", i, err)
			}
		}
	case nil:
		return fmt.Errorf("%w: nil", ErrInvalidShape)
	default:
		return fmt.Errorf("%w: unknown variant %T", ErrInvalidShape, s)
	}
	return nil
}

// Pose is a world position plus rotation in radians.
type Pose struct {
	Position cp.Vector
	Angle    float64
}

// Apply maps a body-local point into world space.
func (p Pose) Apply(local cp.Vector) cp.Vector {
	return p.Position.Add(local.Rotate(cp.ForAngle(p.Angle)))
}

// PlacedPart is a primitive together with its world pose.
type PlacedPart struct {
	Pose  Pose
	Shape Shape
}

// WorldParts decomposes a shape at the given body pose. A primitive yields
// itself; each compound part lands at pose.Position + rotate(offset, angle)
// and inherits the body angle.
func WorldParts(pose Pose, s Shape) []PlacedPart {
	c, ok := s.(Compound)
	if !ok {
		return []PlacedPart{{Pose: pose, Shape: s}}
	}
	out := make([]PlacedPart, 0, len(c.Parts))
	for _, p := range c.Parts {
		out = append(out, PlacedPart{
			Pose:  Pose{Position: pose.Apply(p.Offset), Angle: pose.Angle},
			Shape: p.Shape,
		})
	}
	return out
}

// Sphere is a bounding circle.
type Sphere struct {
	Center cp.Vector
	Radius float64
}

// BoundingSphere returns the world bounding circle of a shape at pose.
func BoundingSphere(pose Pose, s Shape) Sphere {
	c, r := s.localBounds()
	return Sphere{Center: pose.Apply(c), Radius: r}
}

// Vertices returns the body-local polygon outline of a box or triangle,
// shifted by offset. Balls and compounds have none.
func Vertices(s Shape, offset cp.Vector) []cp.Vector {
	switch v := s.(type) {
	case Box:
		hx, hy := v.HalfExtents.X, v.HalfExtents.Y
		return []cp.Vector{
			offset.Add(cp.Vector{X: -hx, Y: -hy}),
			offset.Add(cp.Vector{X: hx, Y: -hy}),
			offset.Add(cp.Vector{X: hx, Y: hy}),
			offset.Add(cp.Vector{X: -hx, Y: hy}),
		}
	case Triangle:
		return []cp.Vector{offset.Add(v.A), offset.Add(v.B), offset.Add(v.C)}
	default:
		return nil
	}
}
