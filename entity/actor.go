package entity

import (
	"errors"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/combat"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
)

// ActorConfig holds the tunables shared by the player and dummies.
type ActorConfig struct {
	Radius           float64
	Health           float64
	Deflection       float64
	WalkSpeed        float64
	SprintSpeed      float64
	WalkAcceleration float64
	LightRadius      float64
	LightColor       color.NRGBA
}

func DefaultActorConfig() ActorConfig {
	return ActorConfig{
		Radius:           1,
		Health:           100,
		Deflection:       60,
		WalkSpeed:        4.5,
		SprintSpeed:      8.5,
		WalkAcceleration: 20,
		LightRadius:      15,
		LightColor:       color.NRGBA{R: 255, G: 255, B: 255, A: 38},
	}
}

// WeaponConfig describes the bullets an actor fires.
type WeaponConfig struct {
	BulletSpeed   float64
	BulletRadius  float64
	FireInterval  float64
	SpawnDistance float64
	// Accuracy is the spread divisor at rest; moving faster widens the cone.
	Accuracy float64
	Material physics.MaterialArgs
}

func DefaultWeaponConfig() WeaponConfig {
	return WeaponConfig{
		BulletSpeed:   160,
		BulletRadius:  0.1,
		FireInterval:  0.1,
		SpawnDistance: 2,
		Accuracy:      50,
		Material: physics.MaterialArgs{
			Density:     1.5,
			Restitution: 0.1,
			Friction:    0.7,
			Role:        physics.RoleBullet,
		},
	}
}

// Intent is what a controller wants an actor to do this tick.
type Intent struct {
	Move   cp.Vector
	Sprint bool
	Aim    cp.Vector
	HasAim bool
	Fire   bool
}

// View is the read-only state a controller decides from.
type View struct {
	Position  cp.Vector
	Velocity  cp.Vector
	Angle     float64
	Health    float64
	Target    cp.Vector
	HasTarget bool
	// LineOfSight reports whether nothing but the target blocks the segment
	// to it. Nil when there is no target.
	LineOfSight func() bool
}

// Controller steers an actor.
type Controller interface {
	Intent(v View) Intent
}

// Actor is a health-bearing body: the player or an AI dummy.
type Actor struct {
	handle physics.EntityHandle
	health *combat.Health
	cfg    ActorConfig

	// Angle is the facing in degrees, 0 pointing down the +y axis.
	Angle      float64
	SinceShot  float64
	Controller Controller

	light    lighting.Handle
	hasLight bool
	hurt     float64
}

// HurtFlashDuration is how long an actor flashes after taking damage.
const HurtFlashDuration = 0.15

// SpawnActor inserts a ball body for the actor and gives it a light. A full
// light registry is not fatal; the actor just goes dark.
func SpawnActor(b *physics.Builder, lights *lighting.Engine, cfg ActorConfig, pos cp.Vector) (*Actor, error) {
	h, err := b.Spawn(
		physics.BodyArgs{Mobility: physics.Dynamic, Position: pos},
		physics.DefaultMaterial(),
		physics.Ball{Radius: cfg.Radius},
	)
	if err != nil {
		return nil, err
	}
	a := &Actor{handle: h, health: combat.NewHealth(cfg.Health), cfg: cfg}
	a.health.OnDamage = func(*combat.Health, float64) { a.hurt = HurtFlashDuration }

	l := lighting.DefaultRadial()
	l.Pos = pos
	l.Radius = cfg.LightRadius
	l.Color = cfg.LightColor
	lh, err := lights.Spawn(l)
	switch {
	case err == nil:
		a.light = lh
		a.hasLight = true
	case errors.Is(err, lighting.ErrCapacityExceeded):
		log.WithPrefix("entity").Warn("actor spawned without light", "handle", h)
	default:
		return nil, err
	}
	return a, nil
}

func (a *Actor) Handle() physics.EntityHandle {
	if a == nil {
		return physics.EntityHandle{}
	}
	return a.handle
}

func (a *Actor) HealthPool() *combat.Health {
	if a == nil {
		return nil
	}
	return a.health
}

func (a *Actor) Deflection() float64 { return a.cfg.Deflection }

func (a *Actor) Config() ActorConfig { return a.cfg }

// SetConfig swaps tunables in place, e.g. after a hot reload. Radius and
// max health only apply to actors spawned afterwards.
func (a *Actor) SetConfig(cfg ActorConfig) {
	if a == nil {
		return
	}
	cfg.Radius = a.cfg.Radius
	a.cfg = cfg
}

func (a *Actor) IsAlive() bool {
	return a != nil && a.health.IsAlive()
}

// Light returns the actor's light handle, if it has one.
func (a *Actor) Light() (lighting.Handle, bool) {
	return a.light, a.hasLight
}

// View snapshots the actor for its controller.
func (a *Actor) View(w *physics.World, target cp.Vector, hasTarget bool) View {
	pos, _ := w.Position(a.handle)
	vel, _ := w.LinearVelocity(a.handle)
	v := View{
		Position:  pos,
		Velocity:  vel,
		Angle:     a.Angle,
		Health:    a.health.Current,
		Target:    target,
		HasTarget: hasTarget,
	}
	if hasTarget {
		self := a.handle.Shape
		v.LineOfSight = func() bool {
			hit, _, ok := w.FirstHit(pos, target, self)
			if !ok {
				return true
			}
			hitHandle, err := w.HandleOf(hit)
			if err != nil {
				return true
			}
			hp, err := w.Position(hitHandle)
			return err == nil && hp.Distance(target) < 1e-6
		}
	}
	return v
}

// Move applies one tick of drag and acceleration. Speed settles where the
// drag impulse cancels the push, at the walk or sprint speed.
func (a *Actor) Move(w *physics.World, in Intent, dt float64) {
	if !a.IsAlive() || dt <= 0 {
		return
	}
	mass, err := w.Mass(a.handle)
	if err != nil {
		return
	}
	vel, err := w.LinearVelocity(a.handle)
	if err != nil {
		return
	}
	accel := a.cfg.WalkAcceleration * mass
	maxSpeed := a.cfg.WalkSpeed
	if in.Sprint {
		maxSpeed = a.cfg.SprintSpeed
	}
	if maxSpeed <= 0 {
		return
	}
	drag := accel / maxSpeed * dt
	_ = w.AddLinearImpulse(a.handle, vel.Neg().Mult(drag))
	if in.Move.LengthSq() > 0 {
		_ = w.AddLinearImpulse(a.handle, in.Move.Normalize().Mult(accel*dt))
	}
}

// AimAt turns the actor toward a world point.
func (a *Actor) AimAt(w *physics.World, target cp.Vector) {
	pos, err := w.Position(a.handle)
	if err != nil {
		return
	}
	a.Angle = FacingDegrees(pos, target)
}

// FacingDegrees is the sprite facing from pos toward target.
func FacingDegrees(pos, target cp.Vector) float64 {
	return common.Degrees(target.Sub(pos).ToAngle()) - 90
}

// Cooldown advances the fire timer and fades the hurt flash.
func (a *Actor) Cooldown(dt float64) {
	a.SinceShot += dt
	a.hurt = math.Max(a.hurt-dt, 0)
}

// Hurt is the remaining hurt flash in [0, 1], 1 right after a hit.
func (a *Actor) Hurt() float64 {
	if a == nil {
		return 0
	}
	return a.hurt / HurtFlashDuration
}

// Shoot fires one bullet toward target if the weapon is ready. The spread
// widens with the actor's speed.
func (a *Actor) Shoot(b *physics.Builder, w *physics.World, weapon WeaponConfig, target cp.Vector, rng *rand.Rand) (physics.EntityHandle, bool, error) {
	if !a.IsAlive() || a.SinceShot <= weapon.FireInterval {
		return physics.EntityHandle{}, false, nil
	}
	pos, err := w.Position(a.handle)
	if err != nil {
		return physics.EntityHandle{}, false, err
	}
	vel, _ := w.LinearVelocity(a.handle)
	d := target.Sub(pos)
	if d.LengthSq() == 0 {
		return physics.EntityHandle{}, false, nil
	}
	d = d.Normalize()

	spread := 0.0
	if rng != nil && weapon.Accuracy > 0 && a.cfg.WalkSpeed > 0 {
		accuracy := weapon.Accuracy / math.Max(vel.Length()/a.cfg.WalkSpeed*2, 1)
		maxAngle := math.Pi / 2 / accuracy
		spread = (rng.Float64()*2 - 1) * maxAngle
	}

	mat := weapon.Material
	mat.Role = physics.RoleBullet
	h, err := b.Spawn(
		physics.BodyArgs{
			Mobility: physics.Dynamic,
			Position: pos.Add(d.Mult(weapon.SpawnDistance)),
			Velocity: d.Rotate(cp.ForAngle(spread)).Mult(weapon.BulletSpeed),
			Role:     physics.RoleBullet,
		},
		mat,
		physics.Ball{Radius: weapon.BulletRadius},
	)
	if err != nil {
		return physics.EntityHandle{}, false, err
	}
	a.SinceShot = 0
	return h, true, nil
}

// SyncLight moves the actor's light onto its body.
func (a *Actor) SyncLight(w *physics.World, lights *lighting.Engine) {
	if a == nil || !a.hasLight {
		return
	}
	pos, err := w.Position(a.handle)
	if err != nil {
		return
	}
	lights.SetPos(a.light, pos)
}

// corpse captures what is left once the body goes away.
func (a *Actor) corpse(w *physics.World) Corpse {
	pos, _ := w.Position(a.handle)
	return Corpse{Pos: pos, Angle: a.Angle, Stage: 1}
}

// InputController replays the latest intent set by the input collaborator.
type InputController struct {
	intent Intent
}

func (c *InputController) Set(in Intent) {
	c.intent = in
}

func (c *InputController) Intent(View) Intent {
	return c.intent
}
