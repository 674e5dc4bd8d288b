package collision

import (
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
)

const (
	DefaultFixedTimeStep = 1.0 / 200.0
	DefaultMaxFrameTime  = 0.25
)

// Config carries every tunable the tick pipeline reads.
type Config struct {
	FixedTimeStep float64
	// MaxFrameTime clamps a single frame so a stall cannot trigger a burst
	// of catch-up ticks.
	MaxFrameTime  float64
	Physics       physics.Config
	Bullets       entity.BulletPolicy
	Weapon        entity.WeaponConfig
	Player        entity.ActorConfig
	Dummy         entity.ActorConfig
	LightCapacity int
	Seed          uint64
}

func DefaultConfig() Config {
	return Config{
		FixedTimeStep: DefaultFixedTimeStep,
		MaxFrameTime:  DefaultMaxFrameTime,
		Physics:       physics.DefaultConfig(),
		Bullets:       entity.DefaultBulletPolicy(),
		Weapon:        entity.DefaultWeaponConfig(),
		Player:        entity.DefaultActorConfig(),
		Dummy:         entity.DefaultActorConfig(),
		LightCapacity: lighting.DefaultCapacity,
		Seed:          1,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if !(c.FixedTimeStep > 0) {
		c.FixedTimeStep = def.FixedTimeStep
	}
	if !(c.MaxFrameTime > 0) {
		c.MaxFrameTime = def.MaxFrameTime
	}
	if c.LightCapacity <= 0 {
		c.LightCapacity = def.LightCapacity
	}
	return c
}

// TickStats summarizes one tick, or a run of ticks, for the HUD.
type TickStats struct {
	Events  int
	Forces  int
	Hits    int
	Shots   int
	Corpses int
	Pruned  int
}

func (s TickStats) Add(o TickStats) TickStats {
	return TickStats{
		Events:  s.Events + o.Events,
		Forces:  s.Forces + o.Forces,
		Hits:    s.Hits + o.Hits,
		Shots:   s.Shots + o.Shots,
		Corpses: s.Corpses + o.Corpses,
		Pruned:  s.Pruned + o.Pruned,
	}
}
