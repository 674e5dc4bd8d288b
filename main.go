package main

import (
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	opts := parseOptions()
	setupLogging(opts.Debug)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("topdown")

	game, err := NewGame(opts)
	if err != nil {
		log.Fatal("start", "err", err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal("run", "err", err)
	}
}
