package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
)

// ErrInvalidHandle is returned for handles whose body or shape was removed
// or never existed.
var ErrInvalidHandle = errors.New("physics: invalid handle")

// Every shape shares one collision type so a single handler sees every contact.
const collisionTypeEntity cp.CollisionType = 1

// Mobility selects between immovable and simulated bodies.
type Mobility uint8

const (
	Dynamic Mobility = iota
	Fixed
)

func (m Mobility) String() string {
	if m == Fixed {
		return "fixed"
	}
	return "dynamic"
}

// Role is the gameplay tag carried by a body.
type Role uint8

const (
	RoleNone Role = iota
	RoleWall
	RoleBullet
)

func (r Role) String() string {
	switch r {
	case RoleWall:
		return "wall"
	case RoleBullet:
		return "bullet"
	default:
		return "none"
	}
}

// Config holds the space-wide integration parameters.
type Config struct {
	Gravity    cp.Vector
	Iterations int
	// Damping is the fraction of velocity kept per second; 1 disables it.
	Damping float64
}

// DefaultConfig is a top-down world: no gravity, no damping.
func DefaultConfig() Config {
	return Config{Iterations: 20, Damping: 1}
}

type bodyRecord struct {
	body     *cp.Body
	mobility Mobility
	role     Role
	shape    ShapeID
}

type shapeRecord struct {
	desc     Shape
	parts    []*cp.Shape
	body     BodyID
	material MaterialArgs
}

// World owns the Chipmunk space and the body/shape arena.
type World struct {
	space *cp.Space
	dt    float64

	bodies arena[bodyRecord]
	shapes arena[shapeRecord]

	queue      eventQueue
	touching   map[pairKey]int
	pairs      []ContactPair
	pairIndex  map[pairKey]int
	forceIndex map[pairKey]int
	forceStart int
	steps      uint64
}

// NewWorld creates an empty world. The timestep starts at zero; set it with
// SetTimeStep before stepping.
func NewWorld(cfg Config) *World {
	space := cp.NewSpace()
	if cfg.Iterations > 0 {
		space.Iterations = uint(cfg.Iterations)
	}
	space.SetGravity(cfg.Gravity)
	if cfg.Damping > 0 {
		space.SetDamping(cfg.Damping)
	}

	w := &World{
		space:      space,
		touching:   make(map[pairKey]int),
		pairIndex:  make(map[pairKey]int),
		forceIndex: make(map[pairKey]int),
	}
	w.setupHandlers()
	return w
}

// Space returns the underlying Chipmunk space. It is meant for debug drawing;
// mutating it directly bypasses the arena.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// SetTimeStep sets the integration step used by Step.
func (w *World) SetTimeStep(dt float64) {
	if w == nil {
		return
	}
	w.dt = dt
}

func (w *World) TimeStep() float64 {
	if w == nil {
		return 0
	}
	return w.dt
}

// SetGravity changes gravity for subsequent steps.
func (w *World) SetGravity(g cp.Vector) {
	if w == nil || w.space == nil {
		return
	}
	w.space.SetGravity(g)
}

// Steps returns how many steps have run.
func (w *World) Steps() uint64 {
	if w == nil {
		return 0
	}
	return w.steps
}

// Len returns the number of live entities.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return w.bodies.len()
}

// Step advances the simulation by the preset timestep and returns the
// contact and force events it produced. The same events stay queued for
// DrainEvents.
func (w *World) Step() StepResult {
	if w == nil || w.space == nil || w.dt <= 0 {
		return StepResult{}
	}

	w.pairs = w.pairs[:0]
	clear(w.pairIndex)
	clear(w.forceIndex)
	eventStart := len(w.queue.events)
	w.forceStart = len(w.queue.forces)

	w.space.Step(w.dt)
	w.steps++

	return StepResult{
		Events: slices.Clone(w.queue.events[eventStart:]),
		Forces: slices.Clone(w.queue.forces[w.forceStart:]),
	}
}

// DrainEvents returns and clears every queued event. Call it once per tick.
func (w *World) DrainEvents() ([]ContactEvent, []ForceEvent) {
	if w == nil {
		return nil, nil
	}
	return w.queue.drain()
}

// PendingEvents reports how many events are waiting to be drained.
func (w *World) PendingEvents() int {
	if w == nil {
		return 0
	}
	return w.queue.len()
}

// ContactPairsWith lists the pairs that touched shape id during the last step.
// Pairs may name shapes removed since then; check ShapeAlive before use.
func (w *World) ContactPairsWith(id ShapeID) []ContactPair {
	if w == nil {
		return nil
	}
	var out []ContactPair
	for _, p := range w.pairs {
		if p.A == id || p.B == id {
			out = append(out, p)
		}
	}
	return out
}

// Insert creates a body with one shape and returns its handle.
func (w *World) Insert(args BodyArgs, mat MaterialArgs, shape Shape) (EntityHandle, error) {
	if w == nil || w.space == nil {
		return EntityHandle{}, fmt.Errorf("physics: insert into nil world: %w", ErrInvalidHandle)
	}
	if err := ValidateShape(shape); err != nil {
		return EntityHandle{}, err
	}
	if err := validateMaterial(args.Mobility, mat); err != nil {
		return EntityHandle{}, err
	}

	var body *cp.Body
	if args.Mobility == Fixed {
		body = cp.NewStaticBody()
	} else {
		body = cp.NewBody(0, 0)
	}
	body.SetPosition(args.Position)
	body.SetAngle(args.Angle)
	if args.Mobility == Dynamic {
		body.SetVelocityVector(args.Velocity)
	}
	w.space.AddBody(body)

	role := args.Role
	if role == RoleNone {
		role = mat.Role
	}
	bodyID := BodyID(w.bodies.insert(bodyRecord{body: body, mobility: args.Mobility, role: role}))
	parts := newCPShapes(body, shape)
	shapeID := ShapeID(w.shapes.insert(shapeRecord{desc: shape, parts: parts, body: bodyID, material: mat}))
	body.UserData = bodyID

	for _, s := range parts {
		s.SetCollisionType(collisionTypeEntity)
		s.SetFriction(mat.Friction)
		s.SetElasticity(mat.Restitution)
		s.SetSensor(mat.Sensor)
		if args.Mobility == Dynamic {
			s.SetDensity(mat.Density)
		}
		s.UserData = shapeID
		w.space.AddShape(s)
	}

	rec, _ := w.bodies.get(uint64(bodyID))
	rec.shape = shapeID

	h := EntityHandle{Body: bodyID, Shape: shapeID}
	log.WithPrefix("physics").Debug("insert", "handle", h, "kind", shape.Kind(), "mobility", args.Mobility, "role", role)
	return h, nil
}

// Remove deletes the body, its shape and any constraints attached to the
// body. The handle is invalid afterwards.
func (w *World) Remove(h EntityHandle) error {
	brec, srec, err := w.lookup(h)
	if err != nil {
		return err
	}

	body := brec.body
	var constraints []*cp.Constraint
	body.EachConstraint(func(c *cp.Constraint) {
		constraints = append(constraints, c)
	})
	for _, c := range constraints {
		w.space.RemoveConstraint(c)
	}
	for _, s := range srec.parts {
		w.space.RemoveShape(s)
	}
	w.space.RemoveBody(body)

	w.shapes.remove(uint64(h.Shape))
	w.bodies.remove(uint64(h.Body))
	log.WithPrefix("physics").Debug("remove", "handle", h)
	return nil
}

// Contains reports whether both halves of the handle are live.
func (w *World) Contains(h EntityHandle) bool {
	_, _, err := w.lookup(h)
	return err == nil
}

// ShapeAlive reports whether the shape is still in the arena.
func (w *World) ShapeAlive(id ShapeID) bool {
	if w == nil {
		return false
	}
	_, ok := w.shapes.get(uint64(id))
	return ok
}

// HandleOf returns the handle owning a shape.
func (w *World) HandleOf(id ShapeID) (EntityHandle, error) {
	if w == nil {
		return EntityHandle{}, ErrInvalidHandle
	}
	srec, ok := w.shapes.get(uint64(id))
	if !ok {
		return EntityHandle{}, ErrInvalidHandle
	}
	return EntityHandle{Body: srec.body, Shape: id}, nil
}

// Handles returns every live handle in slot order.
func (w *World) Handles() []EntityHandle {
	if w == nil {
		return nil
	}
	out := make([]EntityHandle, 0, w.bodies.len())
	w.bodies.each(func(id uint64, rec *bodyRecord) {
		out = append(out, EntityHandle{Body: BodyID(id), Shape: rec.shape})
	})
	return out
}

// FirstHit casts a segment and returns the closest shape it crosses,
// skipping ignore.
func (w *World) FirstHit(from, to cp.Vector, ignore ShapeID) (ShapeID, cp.Vector, bool) {
	if w == nil || w.space == nil {
		return 0, cp.Vector{}, false
	}
	best := math.Inf(1)
	var hit ShapeID
	var point cp.Vector
	w.space.SegmentQuery(from, to, 0, cp.SHAPE_FILTER_ALL, func(s *cp.Shape, p, _ cp.Vector, alpha float64, _ interface{}) {
		id, ok := s.UserData.(ShapeID)
		if !ok || id == ignore || alpha >= best {
			return
		}
		best = alpha
		hit = id
		point = p
	}, nil)
	return hit, point, !math.IsInf(best, 1)
}

func (w *World) lookup(h EntityHandle) (*bodyRecord, *shapeRecord, error) {
	if w == nil {
		return nil, nil, ErrInvalidHandle
	}
	brec, ok := w.bodies.get(uint64(h.Body))
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h.Body)
	}
	srec, ok := w.shapes.get(uint64(h.Shape))
	if !ok || srec.body != h.Body {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h.Shape)
	}
	return brec, srec, nil
}

func (w *World) setupHandlers() {
	h := w.space.NewCollisionHandler(collisionTypeEntity, collisionTypeEntity)
	h.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		a, b, sensor, ok := arbiterShapes(arb)
		if !ok {
			return true
		}
		key := makePairKey(a, b)
		w.touching[key]++
		if w.touching[key] == 1 {
			w.queue.pushEvent(ContactEvent{A: a, B: b, Started: true, Sensor: sensor})
		}
		return true
	}
	h.PreSolveFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		a, b, _, ok := arbiterShapes(arb)
		if !ok {
			return true
		}
		key := makePairKey(a, b)
		if _, seen := w.pairIndex[key]; seen {
			return true
		}
		ba, bb := arb.Bodies()
		w.pairIndex[key] = len(w.pairs)
		w.pairs = append(w.pairs, ContactPair{A: a, B: b, VelA: ba.Velocity(), VelB: bb.Velocity()})
		return true
	}
	h.PostSolveFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		a, b, _, ok := arbiterShapes(arb)
		if !ok || w.dt <= 0 {
			return
		}
		magnitude := arb.TotalImpulse().Length() / w.dt
		key := makePairKey(a, b)
		if i, seen := w.forceIndex[key]; seen {
			w.queue.forces[w.forceStart+i].Magnitude += magnitude
			return
		}
		w.forceIndex[key] = len(w.queue.forces) - w.forceStart
		w.queue.pushForce(ForceEvent{A: a, B: b, Magnitude: magnitude})
	}
	h.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		a, b, sensor, ok := arbiterShapes(arb)
		if !ok {
			return
		}
		key := makePairKey(a, b)
		n, tracked := w.touching[key]
		if !tracked {
			return
		}
		if n > 1 {
			w.touching[key] = n - 1
			return
		}
		delete(w.touching, key)
		w.queue.pushEvent(ContactEvent{A: a, B: b, Started: false, Sensor: sensor})
	}
}

func arbiterShapes(arb *cp.Arbiter) (ShapeID, ShapeID, bool, bool) {
	sa, sb := arb.Shapes()
	a, okA := sa.UserData.(ShapeID)
	b, okB := sb.UserData.(ShapeID)
	return a, b, sa.Sensor() || sb.Sensor(), okA && okB
}

func newCPShapes(body *cp.Body, s Shape) []*cp.Shape {
	switch v := s.(type) {
	case Compound:
		out := make([]*cp.Shape, 0, len(v.Parts))
		for _, p := range v.Parts {
			out = append(out, newPrimitive(body, p.Shape, p.Offset))
		}
		return out
	default:
		return []*cp.Shape{newPrimitive(body, s, cp.Vector{})}
	}
}

func newPrimitive(body *cp.Body, s Shape, offset cp.Vector) *cp.Shape {
	switch v := s.(type) {
	case Ball:
		return cp.NewCircle(body, v.Radius, offset)
	case Box, Triangle:
		verts := Vertices(v, cp.Vector{})
		return cp.NewPolyShape(body, len(verts), verts, cp.NewTransformTranslate(offset), 0)
	default:
		panic(fmt.Sprintf("physics: unexpected primitive %T", s))
	}
}
