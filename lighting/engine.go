package lighting

import (
	"errors"
	"image/color"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
)

// DefaultCapacity matches the size of the light uniform arrays in the shader.
const DefaultCapacity = 400

var ErrCapacityExceeded = errors.New("lighting: capacity exceeded")

type Kind uint8

const (
	Radial Kind = iota
	Ambient
	Cone
)

// Light is one light source. Ambient lights ignore Pos and Radius; only
// cones use Rotation and Spread.
type Light struct {
	Kind     Kind
	Pos      cp.Vector
	Color    color.NRGBA
	Radius   float64
	Rotation float64
	Spread   float64
}

func DefaultRadial() Light {
	return Light{Kind: Radial, Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}, Radius: 150}
}

func DefaultCone() Light {
	return Light{Kind: Cone, Color: color.NRGBA{R: 245, G: 222, B: 179, A: 255}, Radius: 250, Spread: math.Pi / 3}
}

// Handle refers to a spawned light. The zero handle is never issued.
type Handle uint32

// Engine is a bounded light registry.
type Engine struct {
	capacity int
	next     Handle
	lights   map[Handle]*Light
}

func NewEngine(capacity int) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Engine{capacity: capacity, lights: make(map[Handle]*Light)}
}

// Spawn registers a light. It fails with ErrCapacityExceeded when the
// registry is full; callers decide whether to go without.
func (e *Engine) Spawn(l Light) (Handle, error) {
	if e == nil {
		return 0, ErrCapacityExceeded
	}
	if len(e.lights) >= e.capacity {
		log.WithPrefix("lighting").Warn("light refused", "live", len(e.lights), "capacity", e.capacity)
		return 0, ErrCapacityExceeded
	}
	e.next++
	stored := l
	e.lights[e.next] = &stored
	return e.next, nil
}

// Remove drops a light. Unknown handles are ignored.
func (e *Engine) Remove(h Handle) {
	if e == nil {
		return
	}
	delete(e.lights, h)
}

// Get returns the live light for h so callers can edit it in place.
func (e *Engine) Get(h Handle) (*Light, bool) {
	if e == nil {
		return nil, false
	}
	l, ok := e.lights[h]
	return l, ok
}

// SetPos moves a light; it reports false for unknown handles.
func (e *Engine) SetPos(h Handle, p cp.Vector) bool {
	l, ok := e.Get(h)
	if !ok {
		return false
	}
	l.Pos = p
	return true
}

// Each visits lights in spawn order.
func (e *Engine) Each(fn func(Handle, Light)) {
	if e == nil {
		return
	}
	handles := make([]Handle, 0, len(e.lights))
	for h := range e.lights {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		fn(h, *e.lights[h])
	}
}

func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.lights)
}

func (e *Engine) Capacity() int {
	if e == nil {
		return 0
	}
	return e.capacity
}
