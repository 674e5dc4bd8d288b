package levels

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
)

var ErrInvalidArena = errors.New("levels: invalid arena")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Vector() cp.Vector {
	return cp.Vector{X: p.X, Y: p.Y}
}

type Wall struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Obstacles scatters square blocks inside the border. The same seed always
// yields the same layout.
type Obstacles struct {
	Count   int     `json:"count"`
	Seed    uint64  `json:"seed"`
	MinSize float64 `json:"min_size"`
	MaxSize float64 `json:"max_size"`
	// Margin keeps blocks this far from spawns and from each other.
	Margin float64 `json:"margin"`
}

// Arena is the static geometry of a level: a square border, hand-placed
// walls and seeded random obstacles.
type Arena struct {
	Name        string    `json:"name"`
	Border      float64   `json:"border"`
	Thickness   float64   `json:"thickness"`
	Walls       []Wall    `json:"walls,omitempty"`
	Obstacles   Obstacles `json:"obstacles"`
	PlayerSpawn Point     `json:"player_spawn"`
	DummySpawns []Point   `json:"dummy_spawns,omitempty"`
}

func (a *Arena) Validate() error {
	if !(a.Border > 0) || !(a.Thickness > 0) {
		return fmt.Errorf("%w: border %v thickness %v", ErrInvalidArena, a.Border, a.Thickness)
	}
	for i, w := range a.Walls {
		if !(w.Width > 0) || !(w.Height > 0) {
			return fmt.Errorf("%w: wall %d has size %vx%v", ErrInvalidArena, i, w.Width, w.Height)
		}
	}
	if a.Obstacles.Count > 0 && (!(a.Obstacles.MinSize > 0) || a.Obstacles.MaxSize < a.Obstacles.MinSize) {
		return fmt.Errorf("%w: obstacle size %v..%v", ErrInvalidArena, a.Obstacles.MinSize, a.Obstacles.MaxSize)
	}
	return nil
}

// Bounds is the four border walls framing [-Border, Border] on both axes.
func (a *Arena) Bounds() []common.Rect {
	b, t := a.Border, a.Thickness
	return []common.Rect{
		{X: -b - t, Y: -b - t, Width: 2 * (b + t), Height: t},
		{X: -b - t, Y: b, Width: 2 * (b + t), Height: t},
		{X: -b - t, Y: -b, Width: t, Height: 2 * b},
		{X: b, Y: -b, Width: t, Height: 2 * b},
	}
}

// Rects returns every static rectangle: border, walls, then obstacles.
func (a *Arena) Rects() []common.Rect {
	out := a.Bounds()
	for _, w := range a.Walls {
		out = append(out, common.Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height})
	}
	return append(out, a.obstacles(out)...)
}

func (a *Arena) obstacles(placed []common.Rect) []common.Rect {
	o := a.Obstacles
	if o.Count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed+1))

	var keepOut []common.Rect
	for _, p := range append([]Point{a.PlayerSpawn}, a.DummySpawns...) {
		keepOut = append(keepOut, common.Rect{X: p.X, Y: p.Y}.Grow(o.Margin+1))
	}
	keepOut = append(keepOut, placed...)

	var out []common.Rect
	for attempts := 0; len(out) < o.Count && attempts < o.Count*20; attempts++ {
		size := o.MinSize + rng.Float64()*(o.MaxSize-o.MinSize)
		span := 2*a.Border - size
		if span <= 0 {
			break
		}
		r := common.Rect{
			X:      -a.Border + rng.Float64()*span,
			Y:      -a.Border + rng.Float64()*span,
			Width:  size,
			Height: size,
		}
		if overlapsAny(r.Grow(o.Margin), keepOut) {
			continue
		}
		out = append(out, r)
		keepOut = append(keepOut, r)
	}
	return out
}

func overlapsAny(r common.Rect, others []common.Rect) bool {
	for _, o := range others {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}
