package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// EntityHandle is the only external reference to a simulated object. Two
// handles are equal when both ids are equal.
type EntityHandle struct {
	Body  BodyID
	Shape ShapeID
}

func (h EntityHandle) String() string {
	return h.Body.String() + "/" + h.Shape.String()
}

// IsZero reports whether the handle was never issued.
func (h EntityHandle) IsZero() bool {
	return h == EntityHandle{}
}

func (w *World) Position(h EntityHandle) (cp.Vector, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return cp.Vector{}, err
	}
	return brec.body.Position(), nil
}

func (w *World) LinearVelocity(h EntityHandle) (cp.Vector, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return cp.Vector{}, err
	}
	return brec.body.Velocity(), nil
}

func (w *World) AngularVelocity(h EntityHandle) (float64, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return 0, err
	}
	return brec.body.AngularVelocity(), nil
}

// Mass is the summed mass of the body's shapes. Fixed bodies report +Inf.
func (w *World) Mass(h EntityHandle) (float64, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return 0, err
	}
	if brec.mobility == Fixed {
		return math.Inf(1), nil
	}
	return brec.body.Mass(), nil
}

// CenterOfMass returns the world position of the body's center of gravity.
func (w *World) CenterOfMass(h EntityHandle) (cp.Vector, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return cp.Vector{}, err
	}
	return brec.body.LocalToWorld(brec.body.CenterOfGravity()), nil
}

func (w *World) BoundingSphere(h EntityHandle) (Sphere, error) {
	pose, shape, err := w.PoseAndShape(h)
	if err != nil {
		return Sphere{}, err
	}
	return BoundingSphere(pose, shape), nil
}

// RotationAngle returns the body angle in radians.
func (w *World) RotationAngle(h EntityHandle) (float64, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return 0, err
	}
	return brec.body.Angle(), nil
}

func (w *World) PoseAndShape(h EntityHandle) (Pose, Shape, error) {
	brec, srec, err := w.lookup(h)
	if err != nil {
		return Pose{}, nil, err
	}
	return Pose{Position: brec.body.Position(), Angle: brec.body.Angle()}, srec.desc, nil
}

// Role returns the gameplay tag of the handle's body.
func (w *World) Role(h EntityHandle) (Role, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return RoleNone, err
	}
	return brec.role, nil
}

func (w *World) Mobility(h EntityHandle) (Mobility, error) {
	brec, _, err := w.lookup(h)
	if err != nil {
		return Dynamic, err
	}
	return brec.mobility, nil
}

func (w *World) Material(h EntityHandle) (MaterialArgs, error) {
	_, srec, err := w.lookup(h)
	if err != nil {
		return MaterialArgs{}, err
	}
	return srec.material, nil
}

// AddLinearImpulse changes momentum by v, applied at the center of mass.
// Fixed bodies ignore it.
func (w *World) AddLinearImpulse(h EntityHandle, v cp.Vector) error {
	brec, _, err := w.lookup(h)
	if err != nil {
		return err
	}
	if brec.mobility == Fixed {
		return nil
	}
	body := brec.body
	body.ApplyImpulseAtWorldPoint(v, body.LocalToWorld(body.CenterOfGravity()))
	return nil
}

// AddAngularImpulse changes angular momentum by t.
func (w *World) AddAngularImpulse(h EntityHandle, t float64) error {
	brec, _, err := w.lookup(h)
	if err != nil {
		return err
	}
	if brec.mobility == Fixed {
		return nil
	}
	body := brec.body
	moment := body.Moment()
	if !(moment > 0) || math.IsInf(moment, 0) {
		return nil
	}
	body.SetAngularVelocity(body.AngularVelocity() + t/moment)
	return nil
}

func (w *World) SetLinearVelocity(h EntityHandle, v cp.Vector) error {
	brec, _, err := w.lookup(h)
	if err != nil {
		return err
	}
	if brec.mobility == Fixed {
		return nil
	}
	brec.body.SetVelocityVector(v)
	return nil
}

func (w *World) SetAngularVelocity(h EntityHandle, av float64) error {
	brec, _, err := w.lookup(h)
	if err != nil {
		return err
	}
	if brec.mobility == Fixed {
		return nil
	}
	brec.body.SetAngularVelocity(av)
	return nil
}

// SetPosition moves a dynamic body. Fixed geometry never moves after insert.
func (w *World) SetPosition(h EntityHandle, p cp.Vector) error {
	brec, _, err := w.lookup(h)
	if err != nil {
		return err
	}
	if brec.mobility == Fixed {
		return nil
	}
	brec.body.SetPosition(p)
	return nil
}
