package physics

import "github.com/jakecoffman/cp"

// ContactEvent reports that two shapes started or stopped touching.
type ContactEvent struct {
	A, B    ShapeID
	Started bool
	Sensor  bool
}

// ForceEvent reports the contact force between two shapes during one step.
type ForceEvent struct {
	A, B      ShapeID
	Magnitude float64
}

// ContactPair is a pair of shapes touching during the last step. VelA and
// VelB are the body velocities before the solver resolved the contact.
type ContactPair struct {
	A, B       ShapeID
	VelA, VelB cp.Vector
}

// Other returns the shape paired with id and that shape's pre-contact velocity.
func (p ContactPair) Other(id ShapeID) (ShapeID, cp.Vector) {
	if p.A == id {
		return p.B, p.VelB
	}
	return p.A, p.VelA
}

// StepResult carries everything one step produced.
type StepResult struct {
	Events []ContactEvent
	Forces []ForceEvent
}

// eventQueue is a FIFO of step output, drained once per tick.
type eventQueue struct {
	events []ContactEvent
	forces []ForceEvent
}

func (q *eventQueue) pushEvent(evt ContactEvent) {
	if q == nil {
		return
	}
	q.events = append(q.events, evt)
}

func (q *eventQueue) pushForce(evt ForceEvent) {
	if q == nil {
		return
	}
	q.forces = append(q.forces, evt)
}

// drain returns all queued output and clears the queue.
func (q *eventQueue) drain() ([]ContactEvent, []ForceEvent) {
	if q == nil {
		return nil, nil
	}
	events, forces := q.events, q.forces
	q.events, q.forces = nil, nil
	return events, forces
}

func (q *eventQueue) len() int {
	if q == nil {
		return 0
	}
	return len(q.events) + len(q.forces)
}

type pairKey struct {
	a, b ShapeID
}

func makePairKey(a, b ShapeID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}
