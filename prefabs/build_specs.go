package prefabs

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/collision"
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/physics"
)

// Specs groups every tunable file the game reads at startup.
type Specs struct {
	World  WorldSpec
	Player ActorSpec
	Dummy  ActorSpec
	Bullet BulletSpec
}

func LoadSpecs() (*Specs, error) {
	world, err := LoadWorldSpec()
	if err != nil {
		return nil, err
	}
	player, err := LoadActorSpec(PlayerFile)
	if err != nil {
		return nil, err
	}
	dummy, err := LoadActorSpec(DummyFile)
	if err != nil {
		return nil, err
	}
	bullet, err := LoadBulletSpec()
	if err != nil {
		return nil, err
	}
	return &Specs{World: *world, Player: *player, Dummy: *dummy, Bullet: *bullet}, nil
}

// Config turns the specs into the collision world's configuration.
func (s *Specs) Config() collision.Config {
	cfg := collision.DefaultConfig()
	cfg.FixedTimeStep = s.World.FixedTimeStep
	cfg.MaxFrameTime = s.World.MaxFrameTime
	cfg.Physics = physics.Config{
		Gravity:    cp.Vector{X: s.World.Gravity.X, Y: s.World.Gravity.Y},
		Iterations: s.World.Iterations,
		Damping:    s.World.Damping,
	}
	cfg.LightCapacity = s.World.LightCapacity
	cfg.Seed = s.World.Seed
	cfg.Bullets = entity.BulletPolicy{Drag: s.World.Bullets.Drag, StopSpeed: s.World.Bullets.StopSpeed}
	cfg.Player = s.Player.ActorConfig()
	cfg.Dummy = s.Dummy.ActorConfig()
	cfg.Weapon = s.Bullet.WeaponConfig()
	return cfg
}

func (s ActorSpec) ActorConfig() entity.ActorConfig {
	cfg := entity.DefaultActorConfig()
	cfg.Radius = s.Radius
	cfg.Health = s.Health
	cfg.Deflection = s.Deflection
	cfg.WalkSpeed = s.WalkSpeed
	cfg.SprintSpeed = s.SprintSpeed
	cfg.WalkAcceleration = s.WalkAcceleration
	if s.Light.Radius > 0 {
		cfg.LightRadius = s.Light.Radius
	}
	if s.Light.Color != nil {
		cfg.LightColor = s.Light.Color.NRGBA
	}
	return cfg
}

func (s BulletSpec) WeaponConfig() entity.WeaponConfig {
	cfg := entity.DefaultWeaponConfig()
	cfg.BulletSpeed = s.Speed
	cfg.BulletRadius = s.Radius
	cfg.FireInterval = s.FireInterval
	cfg.SpawnDistance = s.SpawnDistance
	cfg.Accuracy = s.Accuracy
	cfg.Material = physics.MaterialArgs{
		Density:     s.Material.Density,
		Restitution: s.Material.Restitution,
		Friction:    s.Material.Friction,
		Role:        physics.RoleBullet,
	}
	return cfg
}

// LoadController compiles the named AI script.
func LoadController(name string) (*entity.ScriptController, error) {
	src, err := LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load script %s: %w", name, err)
	}
	return entity.NewScriptController(name, src)
}
