package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
)

const testStep = 1.0 / 200.0

func newTestWorld() *World {
	w := NewWorld(DefaultConfig())
	w.SetTimeStep(testStep)
	return w
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestHandleLifecycle(t *testing.T) {
	w := newTestWorld()
	h, err := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !w.Contains(h) {
		t.Fatalf("fresh handle should be live")
	}
	if err := w.Remove(h); err != nil {
		t.Fatalf("remove: %v", err)
	}

	queries := []struct {
		name string
		call func() error
	}{
		{"position", func() error { _, err := w.Position(h); return err }},
		{"linear_velocity", func() error { _, err := w.LinearVelocity(h); return err }},
		{"angular_velocity", func() error { _, err := w.AngularVelocity(h); return err }},
		{"mass", func() error { _, err := w.Mass(h); return err }},
		{"center_of_mass", func() error { _, err := w.CenterOfMass(h); return err }},
		{"bounding_sphere", func() error { _, err := w.BoundingSphere(h); return err }},
		{"rotation", func() error { _, err := w.RotationAngle(h); return err }},
		{"pose_and_shape", func() error { _, _, err := w.PoseAndShape(h); return err }},
		{"impulse", func() error { return w.AddLinearImpulse(h, cp.Vector{X: 1}) }},
		{"angular_impulse", func() error { return w.AddAngularImpulse(h, 1) }},
		{"set_velocity", func() error { return w.SetLinearVelocity(h, cp.Vector{X: 1}) }},
		{"set_angular_velocity", func() error { return w.SetAngularVelocity(h, 1) }},
		{"remove_again", func() error { return w.Remove(h) }},
	}
	for _, q := range queries {
		t.Run(q.name, func(t *testing.T) {
			if err := q.call(); !errors.Is(err, ErrInvalidHandle) {
				t.Fatalf("expected ErrInvalidHandle, got %v", err)
			}
		})
	}

	next, err := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if next == h {
		t.Fatalf("reinsert returned the removed handle %s", h)
	}
	if w.Contains(h) {
		t.Fatalf("removed handle aliases the new entity")
	}
}

func TestImpulseScenario(t *testing.T) {
	w := newTestWorld()
	h, err := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	m, err := w.Mass(h)
	if err != nil {
		t.Fatalf("mass: %v", err)
	}
	if !near(m, math.Pi, 1e-9) {
		t.Fatalf("expected mass pi for unit ball at density 1, got %v", m)
	}

	const impulse = 12.0
	if err := w.AddLinearImpulse(h, cp.Vector{X: impulse}); err != nil {
		t.Fatalf("impulse: %v", err)
	}
	w.Step()

	v, err := w.LinearVelocity(h)
	if err != nil {
		t.Fatalf("velocity: %v", err)
	}
	if !near(v.X, impulse/m, 1e-9) || !near(v.Y, 0, 1e-9) {
		t.Fatalf("expected (%v, 0), got %v", impulse/m, v)
	}
	p, _ := w.Position(h)
	if !near(p.X, impulse/m*testStep, 1e-9) {
		t.Fatalf("expected x=%v after one step, got %v", impulse/m*testStep, p.X)
	}
}

func TestCompoundComposition(t *testing.T) {
	w := newTestWorld()
	b := NewBuilder(w)
	parts := []Part{
		{Offset: cp.Vector{X: 2, Y: 0}, Shape: Box{HalfExtents: cp.Vector{X: 1, Y: 1}}},
		{Offset: cp.Vector{X: -1, Y: 1}, Shape: Ball{Radius: 0.5}},
	}
	args := BodyArgs{Mobility: Dynamic, Position: cp.Vector{X: 5, Y: 5}, Angle: math.Pi / 2}
	mat := DefaultMaterial()
	mat.Density = 2
	h, err := b.SpawnCompound(args, mat, parts...)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	pose, shape, err := w.PoseAndShape(h)
	if err != nil {
		t.Fatalf("pose: %v", err)
	}
	placed := WorldParts(pose, shape)
	if len(placed) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(placed))
	}

	want := []cp.Vector{{X: 5, Y: 7}, {X: 4, Y: 4}}
	for i, p := range placed {
		if !near(p.Pose.Position.X, want[i].X, 1e-9) || !near(p.Pose.Position.Y, want[i].Y, 1e-9) {
			t.Fatalf("part %d: expected %v, got %v", i, want[i], p.Pose.Position)
		}
		if !near(p.Pose.Angle, math.Pi/2, 1e-12) {
			t.Fatalf("part %d should inherit the body angle, got %v", i, p.Pose.Angle)
		}
	}

	m, _ := w.Mass(h)
	if wantMass := 2 * (4 + math.Pi*0.25); !near(m, wantMass, 1e-9) {
		t.Fatalf("expected compound mass %v, got %v", wantMass, m)
	}
}

func TestBoundingSphereCoversParts(t *testing.T) {
	shapes := []struct {
		name  string
		shape Shape
	}{
		{"ball", Ball{Radius: 2}},
		{"box", Box{HalfExtents: cp.Vector{X: 3, Y: 4}}},
		{"triangle", Triangle{A: cp.Vector{X: 0, Y: 0}, B: cp.Vector{X: 4, Y: 0}, C: cp.Vector{X: 0, Y: 3}}},
		{"compound", Compound{Parts: []Part{
			{Offset: cp.Vector{X: 3}, Shape: Ball{Radius: 1}},
			{Offset: cp.Vector{X: -3}, Shape: Box{HalfExtents: cp.Vector{X: 1, Y: 1}}},
		}}},
	}
	pose := Pose{Position: cp.Vector{X: 10, Y: -4}, Angle: 0.7}
	for _, s := range shapes {
		t.Run(s.name, func(t *testing.T) {
			sphere := BoundingSphere(pose, s.shape)
			for _, part := range WorldParts(pose, s.shape) {
				var pts []cp.Vector
				switch v := part.Shape.(type) {
				case Ball:
					pts = []cp.Vector{
						part.Pose.Apply(cp.Vector{X: v.Radius}),
						part.Pose.Apply(cp.Vector{X: -v.Radius}),
						part.Pose.Apply(cp.Vector{Y: v.Radius}),
						part.Pose.Apply(cp.Vector{Y: -v.Radius}),
					}
				default:
					for _, local := range Vertices(v, cp.Vector{}) {
						pts = append(pts, part.Pose.Apply(local))
					}
				}
				for _, p := range pts {
					if sphere.Center.Distance(p) > sphere.Radius+1e-9 {
						t.Fatalf("point %v outside sphere %v", p, sphere)
					}
				}
			}
		})
	}
}

func TestInsertRejectsBadDescriptors(t *testing.T) {
	w := newTestWorld()
	cases := []struct {
		name  string
		body  BodyArgs
		mat   MaterialArgs
		shape Shape
		want  error
	}{
		{"zero_radius", DefaultBodyArgs(), DefaultMaterial(), Ball{}, ErrInvalidShape},
		{"flat_box", DefaultBodyArgs(), DefaultMaterial(), Box{HalfExtents: cp.Vector{X: 1}}, ErrInvalidShape},
		{"degenerate_triangle", DefaultBodyArgs(), DefaultMaterial(), Triangle{B: cp.Vector{X: 1}, C: cp.Vector{X: 2}}, ErrInvalidShape},
		{"empty_compound", DefaultBodyArgs(), DefaultMaterial(), Compound{}, ErrInvalidShape},
		{"nested_compound", DefaultBodyArgs(), DefaultMaterial(), Compound{Parts: []Part{{Shape: Compound{Parts: []Part{{Shape: Ball{Radius: 1}}}}}}}, ErrInvalidShape},
		{"nil_shape", DefaultBodyArgs(), DefaultMaterial(), nil, ErrInvalidShape},
		{"massless_dynamic", DefaultBodyArgs(), MaterialArgs{Density: 0}, Ball{Radius: 1}, ErrInvalidMaterial},
		{"negative_friction", DefaultBodyArgs(), MaterialArgs{Density: 1, Friction: -1}, Ball{Radius: 1}, ErrInvalidMaterial},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := w.Insert(c.body, c.mat, c.shape); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
	if w.Len() != 0 {
		t.Fatalf("rejected inserts must not allocate, got %d live", w.Len())
	}
}

func TestContactEventsAndPairs(t *testing.T) {
	w := newTestWorld()
	a, _ := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	b, _ := w.Insert(BodyArgs{Mobility: Dynamic, Position: cp.Vector{X: 1.5}, Velocity: cp.Vector{X: -3}}, DefaultMaterial(), Ball{Radius: 1})

	res := w.Step()
	if len(res.Events) != 1 || !res.Events[0].Started {
		t.Fatalf("expected one started event, got %+v", res.Events)
	}
	pairs := w.ContactPairsWith(a.Shape)
	if len(pairs) != 1 {
		t.Fatalf("expected one pair touching a, got %d", len(pairs))
	}
	other, vel := pairs[0].Other(a.Shape)
	if other != b.Shape {
		t.Fatalf("expected pair partner %s, got %s", b.Shape, other)
	}
	if !near(vel.X, -3, 1e-9) {
		t.Fatalf("expected pre-solve velocity -3, got %v", vel.X)
	}
	if len(res.Forces) == 0 || !(res.Forces[0].Magnitude > 0) {
		t.Fatalf("expected a positive force event, got %+v", res.Forces)
	}

	events, forces := w.DrainEvents()
	if len(events) != 1 || len(forces) == 0 {
		t.Fatalf("drain should return the step output, got %d events %d forces", len(events), len(forces))
	}
	if w.PendingEvents() != 0 {
		t.Fatalf("drain should clear the queue")
	}

	if err := w.Remove(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	events, _ = w.DrainEvents()
	if len(events) != 1 || events[0].Started {
		t.Fatalf("expected one stopped event after removal, got %+v", events)
	}
	if w.ShapeAlive(b.Shape) {
		t.Fatalf("removed shape still alive")
	}
	// pairs from the last step still name b until the next step
	if len(w.ContactPairsWith(a.Shape)) != 1 {
		t.Fatalf("pairs should persist until the next step")
	}
	w.Step()
	if len(w.ContactPairsWith(a.Shape)) != 0 {
		t.Fatalf("pairs should be rebuilt by the next step")
	}
}

func TestFixedBodiesIgnoreMutators(t *testing.T) {
	w := newTestWorld()
	b := NewBuilder(w)
	h, err := b.SpawnRect(common.Rect{X: -5, Y: -1, Width: 10, Height: 2}, DefaultMaterial())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if role, _ := w.Role(h); role != RoleWall {
		t.Fatalf("expected wall role, got %v", role)
	}
	if err := w.AddLinearImpulse(h, cp.Vector{X: 100}); err != nil {
		t.Fatalf("impulse on fixed body: %v", err)
	}
	w.Step()
	p, _ := w.Position(h)
	if p != (cp.Vector{}) {
		t.Fatalf("fixed body moved to %v", p)
	}
	if m, _ := w.Mass(h); !math.IsInf(m, 1) {
		t.Fatalf("fixed body mass should be +Inf, got %v", m)
	}
}

func TestAngularImpulse(t *testing.T) {
	w := newTestWorld()
	h, _ := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Box{HalfExtents: cp.Vector{X: 1, Y: 1}})
	if err := w.AddAngularImpulse(h, 4); err != nil {
		t.Fatalf("angular impulse: %v", err)
	}
	av, _ := w.AngularVelocity(h)
	// box 2x2 at density 1: m=4, I = m*(w^2+h^2)/12 = 8/3
	if !near(av, 4/(8.0/3.0), 1e-9) {
		t.Fatalf("expected %v, got %v", 4/(8.0/3.0), av)
	}
}

func TestFirstHit(t *testing.T) {
	w := newTestWorld()
	self, _ := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	wall, _ := w.Insert(BodyArgs{Mobility: Fixed, Position: cp.Vector{X: 10}, Role: RoleWall}, DefaultMaterial(), Box{HalfExtents: cp.Vector{X: 1, Y: 5}})

	hit, _, ok := w.FirstHit(cp.Vector{}, cp.Vector{X: 20}, self.Shape)
	if !ok || hit != wall.Shape {
		t.Fatalf("expected wall hit, got %v ok=%v", hit, ok)
	}
	if _, _, ok := w.FirstHit(cp.Vector{}, cp.Vector{Y: 20}, self.Shape); ok {
		t.Fatalf("expected no hit straight up")
	}
}

func TestRemoveDropsAttachedConstraints(t *testing.T) {
	w := newTestWorld()
	a, err := w.Insert(DefaultBodyArgs(), DefaultMaterial(), Ball{Radius: 1})
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	b, err := w.Insert(BodyArgs{Mobility: Dynamic, Position: cp.Vector{X: 4}}, DefaultMaterial(), Ball{Radius: 1})
	if err != nil {
		t.Fatalf("insert b: %v", err)
	}
	ra, _, _ := w.lookup(a)
	rb, _, _ := w.lookup(b)
	w.Space().AddConstraint(cp.NewPinJoint(ra.body, rb.body, cp.Vector{}, cp.Vector{}))

	if err := w.Remove(a); err != nil {
		t.Fatalf("remove: %v", err)
	}
	left := 0
	w.Space().EachConstraint(func(*cp.Constraint) { left++ })
	if left != 0 {
		t.Fatalf("expected no constraints after removing a pinned body, got %d", left)
	}
	w.Step()
	if !w.Contains(b) {
		t.Fatalf("the other pinned body should survive")
	}
}

func TestMaterialRoleTagsUntaggedBody(t *testing.T) {
	cases := []struct {
		name     string
		body     Role
		material Role
		want     Role
	}{
		{"material_only", RoleNone, RoleBullet, RoleBullet},
		{"body_wins", RoleWall, RoleBullet, RoleWall},
		{"neither", RoleNone, RoleNone, RoleNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld()
			mat := DefaultMaterial()
			mat.Role = c.material
			h, err := w.Insert(BodyArgs{Mobility: Dynamic, Role: c.body}, mat, Ball{Radius: 0.5})
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
			if got, _ := w.Role(h); got != c.want {
				t.Fatalf("role = %v, want %v", got, c.want)
			}
		})
	}
}
