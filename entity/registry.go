package entity

import (
	"github.com/charmbracelet/log"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
)

// BulletPolicy controls how fast free bullets bleed speed and when they are
// dropped.
type BulletPolicy struct {
	Drag      float64
	StopSpeed float64
}

func DefaultBulletPolicy() BulletPolicy {
	return BulletPolicy{Drag: 1.5, StopSpeed: 5}
}

// Registry owns the active bullets, dummies and corpses.
type Registry struct {
	bullets []physics.EntityHandle
	index   map[physics.EntityHandle]int
	dummies []*Actor
	corpses []Corpse
}

func NewRegistry() *Registry {
	return &Registry{index: map[physics.EntityHandle]int{}}
}

func (r *Registry) AddBullet(h physics.EntityHandle) {
	if _, ok := r.index[h]; ok {
		return
	}
	r.index[h] = len(r.bullets)
	r.bullets = append(r.bullets, h)
}

// RemoveBullet drops h by identity and reports whether it was present. The
// body itself is left to the caller.
func (r *Registry) RemoveBullet(h physics.EntityHandle) bool {
	i, ok := r.index[h]
	if !ok {
		return false
	}
	last := len(r.bullets) - 1
	if i != last {
		moved := r.bullets[last]
		r.bullets[i] = moved
		r.index[moved] = i
	}
	r.bullets = r.bullets[:last]
	delete(r.index, h)
	return true
}

func (r *Registry) HasBullet(h physics.EntityHandle) bool {
	_, ok := r.index[h]
	return ok
}

// Bullets returns a copy of the active bullet handles.
func (r *Registry) Bullets() []physics.EntityHandle {
	return append([]physics.EntityHandle(nil), r.bullets...)
}

func (r *Registry) BulletCount() int { return len(r.bullets) }

// UpdateBullets applies drag to every bullet and deletes the ones that have
// slowed below the stop speed. It returns how many were pruned.
func (r *Registry) UpdateBullets(w *physics.World, p BulletPolicy, dt float64) int {
	pruned := 0
	for _, h := range r.Bullets() {
		vel, err := w.LinearVelocity(h)
		if err != nil {
			r.RemoveBullet(h)
			continue
		}
		if vel.Length() < p.StopSpeed {
			r.RemoveBullet(h)
			_ = w.Remove(h)
			pruned++
			continue
		}
		mass, err := w.Mass(h)
		if err != nil {
			continue
		}
		_ = w.AddLinearImpulse(h, vel.Neg().Mult(p.Drag*mass*dt))
	}
	if pruned > 0 {
		log.WithPrefix("entity").Debug("bullets pruned", "count", pruned, "active", len(r.bullets))
	}
	return pruned
}

func (r *Registry) AddDummy(a *Actor) {
	if a == nil {
		return
	}
	r.dummies = append(r.dummies, a)
}

func (r *Registry) Dummies() []*Actor {
	return r.dummies
}

// ReapDummies turns each dead dummy into a corpse exactly once: the corpse
// is recorded, the body is deleted and the light released.
func (r *Registry) ReapDummies(w *physics.World, lights *lighting.Engine) []Corpse {
	var reaped []Corpse
	alive := r.dummies[:0]
	for _, d := range r.dummies {
		if d.IsAlive() {
			alive = append(alive, d)
			continue
		}
		c := d.corpse(w)
		if err := w.Remove(d.handle); err != nil {
			log.WithPrefix("entity").Warn("dummy body already gone", "handle", d.handle, "err", err)
		}
		if lh, ok := d.Light(); ok && lights != nil {
			lights.Remove(lh)
			d.hasLight = false
		}
		reaped = append(reaped, c)
		log.WithPrefix("entity").Info("dummy died", "pos", c.Pos)
	}
	for i := len(alive); i < len(r.dummies); i++ {
		r.dummies[i] = nil
	}
	r.dummies = alive
	r.corpses = append(r.corpses, reaped...)
	return reaped
}

func (r *Registry) Corpses() []Corpse {
	return r.corpses
}

func (r *Registry) UpdateCorpses(dt float64) {
	for i := range r.corpses {
		if r.corpses[i].Settled() {
			continue
		}
		r.corpses[i].Update(dt)
	}
}

// Clear forgets everything without touching the physics world.
func (r *Registry) Clear() {
	r.bullets = nil
	r.index = map[physics.EntityHandle]int{}
	r.dummies = nil
	r.corpses = nil
}
