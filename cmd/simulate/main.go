package main

import (
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/milk9111/topdown/collision"
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/levels"
	"github.com/milk9111/topdown/prefabs"
)

// simulate runs an arena headless: the player holds still and fires at the
// nearest dummy until the time runs out.
func main() {
	arenaName := flag.String("arena", "", "arena name in levels/")
	seconds := flag.Float64("seconds", 10, "simulated seconds")
	frame := flag.Float64("frame", 1.0/60.0, "frame time fed to the accumulator")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.TimeOnly)
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	arena, err := levels.Load(*arenaName)
	if err != nil {
		log.Fatal("load arena", "err", err)
	}
	specs, err := prefabs.LoadSpecs()
	if err != nil {
		log.Fatal("load tunables", "err", err)
	}

	world := collision.NewWorld(specs.Config())
	if sc, err := prefabs.LoadController(specs.Dummy.Script); err == nil {
		world.SetDummyScript(sc)
	} else {
		log.Warn("dummy script", "err", err)
	}
	for _, r := range arena.Rects() {
		if _, err := world.AddStatic(r); err != nil {
			log.Fatal("add static", "err", err)
		}
	}
	player, err := world.SpawnPlayer(arena.PlayerSpawn.Vector())
	if err != nil {
		log.Fatal("spawn player", "err", err)
	}
	for _, p := range arena.DummySpawns {
		if _, err := world.SpawnDummy(p.Vector()); err != nil {
			log.Fatal("spawn dummy", "err", err)
		}
	}

	for elapsed := 0.0; elapsed < *seconds; elapsed += *frame {
		world.SetPlayerIntent(aimAtNearest(world, player))
		world.Step(*frame)
	}

	reg := world.Registry()
	totals := world.Totals()
	log.Info("done",
		"arena", arena.Name,
		"ticks", world.Ticks(),
		"shots", totals.Shots,
		"hits", totals.Hits,
		"pruned", totals.Pruned,
		"bullets", reg.BulletCount(),
		"dummies", len(reg.Dummies()),
		"corpses", len(reg.Corpses()),
		"lights", world.Lights().Len(),
	)
}

func aimAtNearest(w *collision.World, player *entity.Actor) entity.Intent {
	from, err := w.Physics().Position(player.Handle())
	if err != nil {
		return entity.Intent{}
	}
	var in entity.Intent
	best := -1.0
	for _, d := range w.Registry().Dummies() {
		p, err := w.Physics().Position(d.Handle())
		if err != nil {
			continue
		}
		if dist := from.DistanceSq(p); best < 0 || dist < best {
			best = dist
			in = entity.Intent{Aim: p, HasAim: true, Fire: true}
		}
	}
	return in
}
