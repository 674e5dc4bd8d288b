package combat

import (
	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/physics"
)

// MaxHitDamage caps the damage a single bullet can deal.
const MaxHitDamage = 25.0

// Damage is the linear ramp applied above the deflection threshold.
func Damage(speed, threshold float64) float64 {
	return common.Clamp(speed-threshold, 0, MaxHitDamage)
}

// Target is a health-bearing entity.
type Target interface {
	Handle() physics.EntityHandle
	HealthPool() *Health
	// Deflection is the bullet speed at or below which hits bounce off.
	Deflection() float64
}

// BulletSet is the active bullet collection a damaging bullet is removed from.
type BulletSet interface {
	RemoveBullet(h physics.EntityHandle) bool
}

// Hit describes the damaging contact found for a target in one tick.
type Hit struct {
	Bullet  physics.EntityHandle
	Speed   float64
	Damage  float64
	Impulse cp.Vector
}

// Resolver turns one tick's contacts into damage and knockback.
type Resolver struct {
	world   *physics.World
	bullets BulletSet
}

func NewResolver(w *physics.World, bullets BulletSet) *Resolver {
	return &Resolver{world: w, bullets: bullets}
}

// Resolve scans the target's contacts from the last step. The first bullet
// faster than the target's deflection threshold deals damage, is removed
// and knocks the target back; later contacts in the same tick are ignored.
func (r *Resolver) Resolve(t Target) (Hit, bool) {
	if r == nil || r.world == nil || t == nil {
		return Hit{}, false
	}
	health := t.HealthPool()
	if !health.IsAlive() {
		return Hit{}, false
	}
	self := t.Handle()
	if !r.world.Contains(self) {
		return Hit{}, false
	}

	var hit Hit
	found := false
	for _, pair := range r.world.ContactPairsWith(self.Shape) {
		otherShape, vel := pair.Other(self.Shape)
		// removed earlier this tick by another target's pass
		other, err := r.world.HandleOf(otherShape)
		if err != nil {
			continue
		}
		role, err := r.world.Role(other)
		if err != nil || role != physics.RoleBullet {
			continue
		}
		speed := vel.Length()
		if speed <= t.Deflection() {
			continue
		}
		mass, err := r.world.Mass(other)
		if err != nil {
			continue
		}
		hit = Hit{
			Bullet:  other,
			Speed:   speed,
			Damage:  Damage(speed, t.Deflection()),
			Impulse: vel.Normalize().Mult(speed * mass),
		}
		health.ApplyDamage(hit.Damage)
		found = true
		break
	}
	if !found {
		return Hit{}, false
	}

	if r.bullets != nil {
		r.bullets.RemoveBullet(hit.Bullet)
	}
	// an already deleted bullet counts as resolved
	_ = r.world.Remove(hit.Bullet)
	_ = r.world.AddLinearImpulse(self, hit.Impulse)

	log.WithPrefix("combat").Debug("bullet hit", "target", self, "speed", hit.Speed, "damage", hit.Damage, "health", health.Current)
	return hit, true
}
