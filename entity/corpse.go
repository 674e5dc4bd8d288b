package entity

import "github.com/jakecoffman/cp"

const (
	CorpseStages        = 4
	CorpseStageDuration = 0.1
)

// Corpse is the render-only remains of a dead dummy. It has no body.
type Corpse struct {
	Pos   cp.Vector
	Angle float64
	Stage int
	timer float64
}

// Update advances the decay animation and holds on the last stage.
func (c *Corpse) Update(dt float64) {
	if c.Stage >= CorpseStages {
		return
	}
	c.timer += dt
	for c.timer >= CorpseStageDuration && c.Stage < CorpseStages {
		c.timer -= CorpseStageDuration
		c.Stage++
	}
}

// Settled reports that the animation reached its last stage.
func (c *Corpse) Settled() bool {
	return c.Stage >= CorpseStages
}
