package main

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/topdown/render"
	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// copyToClipboard puts text on the system clipboard. Headless systems have
// no clipboard; that is logged once and otherwise ignored.
func copyToClipboard(text string) bool {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
		if clipboardErr != nil {
			log.WithPrefix("debug").Warn("clipboard unavailable", "err", clipboardErr)
		}
	})
	if clipboardErr != nil {
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	log.WithPrefix("debug").Info("debug snapshot copied", "bytes", len(text))
	return true
}

// info gathers the overlay snapshot.
func (g *Game) info() render.Info {
	w := g.world
	reg := w.Registry()
	player := w.Player()
	info := render.Info{
		Arena:    g.arena.Name,
		TPS:      ebiten.ActualTPS(),
		FPS:      ebiten.ActualFPS(),
		Ticks:    w.Ticks(),
		Alpha:    w.Alpha(),
		Bodies:   w.Physics().Len(),
		Bullets:  reg.BulletCount(),
		Dummies:  len(reg.Dummies()),
		Corpses:  len(reg.Corpses()),
		Lights:   w.Lights().Len(),
		LightCap: w.Lights().Capacity(),
		LastTick: w.LastTick(),
		Frame:    g.frame,
	}
	if player != nil {
		info.PlayerPos, _ = w.Physics().Position(player.Handle())
		info.PlayerVel, _ = w.Physics().LinearVelocity(player.Handle())
		info.PlayerAngle = player.Angle
		info.Health = player.HealthPool().Current
	}
	return info
}
