package main

import (
	"flag"
	"time"

	"github.com/charmbracelet/log"
)

// Options are the command-line settings.
type Options struct {
	Debug   bool
	Arena   string
	Watch   bool
	Dummies bool
	Zoom    float64
}

func parseOptions() Options {
	var o Options
	flag.BoolVar(&o.Debug, "debug", false, "enable debug logging and start with the overlay on")
	flag.StringVar(&o.Arena, "arena", "", "arena name in levels/ (basename, .json optional)")
	flag.BoolVar(&o.Watch, "watch", false, "hot reload prefabs/ tunables and scripts from disk")
	flag.BoolVar(&o.Dummies, "dummies", true, "spawn the arena's dummies at start")
	flag.Float64Var(&o.Zoom, "zoom", 16, "pixels per world unit")
	flag.Parse()
	return o
}

func setupLogging(debug bool) {
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.TimeOnly)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}
