package collision

import (
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/combat"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
)

// World runs the physics world on a fixed timestep and applies the gameplay
// consequences of every tick.
type World struct {
	cfg Config

	physics  *physics.World
	builder  *physics.Builder
	registry *entity.Registry
	lights   *lighting.Engine
	resolver *combat.Resolver
	rng      *rand.Rand

	player      *entity.Actor
	playerInput *entity.InputController
	dummyScript *entity.ScriptController

	accumulated float64
	ticks       uint64
	last        TickStats
	totals      TickStats
}

func NewWorld(cfg Config) *World {
	cfg = cfg.normalized()
	pw := physics.NewWorld(cfg.Physics)
	pw.SetTimeStep(cfg.FixedTimeStep)
	reg := entity.NewRegistry()
	return &World{
		cfg:         cfg,
		physics:     pw,
		builder:     physics.NewBuilder(pw),
		registry:    reg,
		lights:      lighting.NewEngine(cfg.LightCapacity),
		resolver:    combat.NewResolver(pw, reg),
		rng:         rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		playerInput: &entity.InputController{},
	}
}

func (w *World) Config() Config { return w.cfg }

// SetConfig swaps tunables between frames. The light capacity and seed only
// apply to new worlds.
func (w *World) SetConfig(cfg Config) {
	cfg = cfg.normalized()
	cfg.LightCapacity = w.cfg.LightCapacity
	cfg.Seed = w.cfg.Seed
	w.cfg = cfg
	w.physics.SetGravity(cfg.Physics.Gravity)
	w.physics.SetTimeStep(cfg.FixedTimeStep)
	w.player.SetConfig(cfg.Player)
	for _, d := range w.registry.Dummies() {
		d.SetConfig(cfg.Dummy)
	}
	if w.accumulated >= cfg.FixedTimeStep {
		w.accumulated = math.Mod(w.accumulated, cfg.FixedTimeStep)
	}
}

func (w *World) Physics() *physics.World { return w.physics }

func (w *World) Builder() *physics.Builder { return w.builder }

func (w *World) Registry() *entity.Registry { return w.registry }

func (w *World) Lights() *lighting.Engine { return w.lights }

func (w *World) Player() *entity.Actor { return w.player }

// Accumulated is the frame time not yet consumed by a tick.
func (w *World) Accumulated() float64 { return w.accumulated }

func (w *World) Ticks() uint64 { return w.ticks }

// Alpha is the fraction of a tick left in the accumulator, for render
// interpolation.
func (w *World) Alpha() float64 {
	return w.accumulated / w.cfg.FixedTimeStep
}

func (w *World) LastTick() TickStats { return w.last }

// Totals sums the stats of every tick run so far.
func (w *World) Totals() TickStats { return w.totals }

// Step consumes one frame of wall time and runs as many fixed ticks as fit.
// Negative or non-finite frame times count as zero.
func (w *World) Step(frameTime float64) int {
	clamped := 0.0
	if frameTime > 0 && !math.IsInf(frameTime, 1) {
		clamped = math.Min(frameTime, w.cfg.MaxFrameTime)
	}
	w.accumulated += clamped

	n := 0
	for w.accumulated >= w.cfg.FixedTimeStep {
		w.tick(w.cfg.FixedTimeStep)
		w.accumulated -= w.cfg.FixedTimeStep
		n++
	}
	return n
}

func (w *World) tick(dt float64) {
	w.physics.SetTimeStep(dt)
	w.physics.Step()

	var stats TickStats

	actors := w.livingActors()
	for _, a := range actors {
		if _, ok := w.resolver.Resolve(a); ok {
			stats.Hits++
		}
	}

	target, hasTarget := w.playerTarget()
	for _, a := range actors {
		if !a.IsAlive() {
			continue
		}
		var in entity.Intent
		if a.Controller != nil {
			view := a.View(w.physics, target, hasTarget && a != w.player)
			in = a.Controller.Intent(view)
		}
		a.Move(w.physics, in, dt)
		if in.HasAim {
			a.AimAt(w.physics, in.Aim)
		}
		a.Cooldown(dt)
		if in.Fire && in.HasAim {
			if _, ok, err := w.Shoot(a, in.Aim); err != nil {
				log.WithPrefix("collision").Warn("shoot", "actor", a.Handle(), "err", err)
			} else if ok {
				stats.Shots++
			}
		}
	}

	stats.Corpses = len(w.registry.ReapDummies(w.physics, w.lights))
	stats.Pruned = w.registry.UpdateBullets(w.physics, w.cfg.Bullets, dt)
	w.registry.UpdateCorpses(dt)

	w.player.SyncLight(w.physics, w.lights)
	for _, d := range w.registry.Dummies() {
		d.SyncLight(w.physics, w.lights)
	}

	// Removals above end contacts; their events belong to this tick too.
	events, forces := w.physics.DrainEvents()
	stats.Events = len(events)
	stats.Forces = len(forces)

	w.ticks++
	w.last = stats
	w.totals = w.totals.Add(stats)
}

func (w *World) livingActors() []*entity.Actor {
	out := make([]*entity.Actor, 0, len(w.registry.Dummies())+1)
	if w.player.IsAlive() {
		out = append(out, w.player)
	}
	for _, d := range w.registry.Dummies() {
		if d.IsAlive() {
			out = append(out, d)
		}
	}
	return out
}

func (w *World) playerTarget() (cp.Vector, bool) {
	if !w.player.IsAlive() {
		return cp.Vector{}, false
	}
	pos, err := w.physics.Position(w.player.Handle())
	if err != nil {
		return cp.Vector{}, false
	}
	return pos, true
}

// SpawnPlayer places the player, replacing any previous one.
func (w *World) SpawnPlayer(pos cp.Vector) (*entity.Actor, error) {
	if w.player != nil {
		_ = w.physics.Remove(w.player.Handle())
		if lh, ok := w.player.Light(); ok {
			w.lights.Remove(lh)
		}
		w.player = nil
	}
	a, err := entity.SpawnActor(w.builder, w.lights, w.cfg.Player, pos)
	if err != nil {
		return nil, err
	}
	a.Controller = w.playerInput
	w.player = a
	log.WithPrefix("collision").Info("player spawned", "pos", pos)
	return a, nil
}

// SetPlayerIntent feeds the input snapshot the player acts on next tick.
func (w *World) SetPlayerIntent(in entity.Intent) {
	w.playerInput.Set(in)
}

// SetDummyScript sets the controller template cloned into each new dummy.
// Nil leaves new dummies standing still.
func (w *World) SetDummyScript(sc *entity.ScriptController) {
	w.dummyScript = sc
}

// ReloadDummyScript gives every living dummy a fresh clone of sc.
func (w *World) ReloadDummyScript(sc *entity.ScriptController) {
	w.dummyScript = sc
	for _, d := range w.registry.Dummies() {
		if sc == nil {
			d.Controller = nil
			continue
		}
		d.Controller = sc.Clone()
	}
}

func (w *World) SpawnDummy(pos cp.Vector) (*entity.Actor, error) {
	a, err := entity.SpawnActor(w.builder, w.lights, w.cfg.Dummy, pos)
	if err != nil {
		return nil, err
	}
	if w.dummyScript != nil {
		a.Controller = w.dummyScript.Clone()
	}
	w.registry.AddDummy(a)
	log.WithPrefix("collision").Debug("dummy spawned", "pos", pos, "dummies", len(w.registry.Dummies()))
	return a, nil
}

// Shoot fires a from its current position toward target and tracks the
// bullet.
func (w *World) Shoot(a *entity.Actor, target cp.Vector) (physics.EntityHandle, bool, error) {
	h, ok, err := a.Shoot(w.builder, w.physics, w.cfg.Weapon, target, w.rng)
	if err != nil || !ok {
		return h, ok, err
	}
	w.registry.AddBullet(h)
	return h, true, nil
}

// AddStatic turns an axis-aligned rectangle into a wall.
func (w *World) AddStatic(r common.Rect) (physics.EntityHandle, error) {
	mat := physics.DefaultMaterial()
	mat.Role = physics.RoleWall
	return w.builder.SpawnRect(r, mat)
}

// SpawnCrate drops a dynamic compound crate: a body box with a smaller box
// and a wedge hanging off it.
func (w *World) SpawnCrate(pos cp.Vector) (physics.EntityHandle, error) {
	return w.builder.SpawnCompound(
		physics.BodyArgs{Mobility: physics.Dynamic, Position: pos, Angle: w.rng.Float64() * 2 * math.Pi},
		physics.DefaultMaterial(),
		physics.Part{Shape: physics.Box{HalfExtents: cp.Vector{X: 1, Y: 1}}},
		physics.Part{Offset: cp.Vector{X: 1.5}, Shape: physics.Box{HalfExtents: cp.Vector{X: 0.5, Y: 0.5}}},
		physics.Part{Offset: cp.Vector{Y: 1}, Shape: physics.Triangle{
			A: cp.Vector{X: -1},
			B: cp.Vector{X: 1},
			C: cp.Vector{Y: 1},
		}},
	)
}
