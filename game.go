package main

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/topdown/collision"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/levels"
	"github.com/milk9111/topdown/prefabs"
	"github.com/milk9111/topdown/render"
)

type Game struct {
	opts    Options
	specs   *prefabs.Specs
	arena   *levels.Arena
	world   *collision.World
	camera  *render.Camera
	input   *Input
	pauseUI *ebitenui.UI
	watcher *prefabs.Watcher

	debug          bool
	paused         bool
	quit           bool
	resetRequested bool

	frame      render.Stats
	lastUpdate time.Time
}

func NewGame(opts Options) (*Game, error) {
	arena, err := levels.Load(opts.Arena)
	if err != nil {
		return nil, err
	}
	specs, err := prefabs.LoadSpecs()
	if err != nil {
		return nil, err
	}

	camera := render.NewCamera(common.BaseWidth, common.BaseHeight, opts.Zoom)
	g := &Game{
		opts:   opts,
		specs:  specs,
		arena:  arena,
		camera: camera,
		input:  NewInput(camera),
		debug:  opts.Debug,
	}
	g.pauseUI = NewPauseUI(g)

	if err := g.buildWorld(); err != nil {
		return nil, err
	}

	if opts.Watch {
		w, err := prefabs.NewWatcher(prefabs.Dir, filepath.Join(prefabs.Dir, "scripts"))
		if err != nil {
			log.WithPrefix("game").Warn("hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// buildWorld makes a fresh collision world and populates it from the arena.
func (g *Game) buildWorld() error {
	world := collision.NewWorld(g.specs.Config())

	if name := g.specs.Dummy.Script; name != "" {
		sc, err := prefabs.LoadController(name)
		if err != nil {
			log.WithPrefix("game").Warn("dummy script failed, dummies stand still", "script", name, "err", err)
		} else {
			world.SetDummyScript(sc)
		}
	}

	for _, r := range g.arena.Rects() {
		if _, err := world.AddStatic(r); err != nil {
			return err
		}
	}
	if _, err := world.SpawnPlayer(g.arena.PlayerSpawn.Vector()); err != nil {
		return err
	}
	if g.opts.Dummies {
		for _, p := range g.arena.DummySpawns {
			if _, err := world.SpawnDummy(p.Vector()); err != nil {
				return err
			}
		}
	}

	g.world = world
	g.camera.Center = g.arena.PlayerSpawn.Vector()
	g.lastUpdate = time.Time{}
	log.WithPrefix("game").Info("arena ready", "arena", g.arena.Name, "bodies", world.Physics().Len())
	return nil
}

func (g *Game) Update() error {
	if g.quit {
		g.Close()
		return ebiten.Termination
	}

	now := time.Now()
	frameTime := 0.0
	if !g.lastUpdate.IsZero() {
		frameTime = now.Sub(g.lastUpdate).Seconds()
	}
	g.lastUpdate = now

	playerPos, _ := g.world.Physics().Position(g.world.Player().Handle())
	g.input.Update(playerPos)

	if g.input.PausePressed {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}
	if g.resetRequested {
		g.resetRequested = false
		if err := g.buildWorld(); err != nil {
			return err
		}
		return nil
	}

	g.pollReload()
	g.handleDebugKeys()

	g.world.SetPlayerIntent(g.input.Intent())
	g.world.Step(frameTime)

	if pos, err := g.world.Physics().Position(g.world.Player().Handle()); err == nil {
		g.camera.Follow(pos)
	}
	return nil
}

func (g *Game) handleDebugKeys() {
	in := g.input
	if in.DebugPressed {
		g.debug = !g.debug
	}
	if in.CopyPressed {
		copyToClipboard(g.info().String())
	}
	if in.SpawnDummyPressed {
		if _, err := g.world.SpawnDummy(in.Aim); err != nil {
			log.WithPrefix("game").Warn("spawn dummy", "err", err)
		}
	}
	if in.DropCratePressed {
		if _, err := g.world.SpawnCrate(in.Aim); err != nil {
			log.WithPrefix("game").Warn("drop crate", "err", err)
		}
	}
	if in.RespawnPressed && !g.world.Player().IsAlive() {
		if _, err := g.world.SpawnPlayer(g.arena.PlayerSpawn.Vector()); err != nil {
			log.WithPrefix("game").Warn("respawn", "err", err)
		}
	}
}

// pollReload applies tunable and script edits picked up by the watcher.
func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for _, c := range g.watcher.Poll() {
		switch c.Kind {
		case prefabs.ChangeSpec:
			specs, err := prefabs.LoadSpecs()
			if err != nil {
				log.WithPrefix("game").Warn("reload tunables", "file", c.Name, "err", err)
				continue
			}
			g.specs = specs
			g.world.SetConfig(specs.Config())
			log.WithPrefix("game").Info("tunables reloaded", "file", c.Name)
		case prefabs.ChangeScript:
			if c.Name != g.specs.Dummy.Script {
				continue
			}
			sc, err := prefabs.LoadController(c.Name)
			if err != nil {
				log.WithPrefix("game").Warn("reload script", "file", c.Name, "err", err)
				continue
			}
			g.world.ReloadDummyScript(sc)
			log.WithPrefix("game").Info("script reloaded", "file", c.Name)
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	render.Clear(screen)
	reg := g.world.Registry()
	g.frame = render.DrawScene(screen, g.camera, render.Scene{
		World:   g.world.Physics(),
		Lights:  g.world.Lights(),
		Player:  g.world.Player(),
		Dummies: reg.Dummies(),
		Corpses: reg.Corpses(),
	})
	if g.debug {
		render.DrawPhysicsDebug(screen, g.camera, g.world.Physics())
	}
	render.DrawHUD(screen, g.info(), g.world.Player().HealthPool().Fraction(), g.debug)

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

// Close stops the watcher.
func (g *Game) Close() {
	if g.watcher == nil {
		return
	}
	if err := g.watcher.Close(); err != nil {
		log.WithPrefix("game").Warn("close watcher", "err", err)
	}
	g.watcher = nil
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
