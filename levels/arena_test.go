package levels

import (
	"errors"
	"slices"
	"testing"

	"github.com/milk9111/topdown/common"
)

func TestLoadEmbedded(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
	}{
		{"arena", 4 + 2 + 1, 4 + 2 + 14},
		{"open.json", 4, 4},
		{"", 4 + 2 + 1, 4 + 2 + 14},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Load(c.name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			rects := a.Rects()
			if len(rects) < c.min || len(rects) > c.max {
				t.Fatalf("got %d rects, want %d..%d", len(rects), c.min, c.max)
			}
		})
	}
	if _, err := Load("missing"); err == nil {
		t.Fatalf("expected error for a missing arena")
	}
	if names := Names(); !slices.Contains(names, "arena") || !slices.Contains(names, "open") {
		t.Fatalf("unexpected arena names %v", names)
	}
}

func TestBoundsEncloseArena(t *testing.T) {
	a := &Arena{Border: 10, Thickness: 1}
	bounds := a.Bounds()
	inner := common.Rect{X: -10, Y: -10, Width: 20, Height: 20}
	for i, b := range bounds {
		if b.Intersects(inner) {
			t.Fatalf("border %d %+v intrudes into the play area", i, b)
		}
	}
	probes := [][2]float64{{0, -10.5}, {0, 10.5}, {-10.5, 0}, {10.5, 0}, {-10.5, -10.5}, {10.5, 10.5}}
	for _, p := range probes {
		covered := false
		for _, b := range bounds {
			if b.Contains(p[0], p[1]) {
				covered = true
			}
		}
		if !covered {
			t.Fatalf("point %v escapes the border", p)
		}
	}
}

func TestObstaclesAreSeededAndClear(t *testing.T) {
	a := &Arena{
		Border:      30,
		Thickness:   1,
		Obstacles:   Obstacles{Count: 10, Seed: 3, MinSize: 1, MaxSize: 4, Margin: 1},
		PlayerSpawn: Point{X: 0, Y: 0},
		DummySpawns: []Point{{X: 10, Y: 10}},
	}
	first := a.obstacles(nil)
	second := a.obstacles(nil)
	if !slices.Equal(first, second) {
		t.Fatalf("same seed must give the same layout")
	}
	if len(first) == 0 {
		t.Fatalf("expected some obstacles")
	}

	for i, r := range first {
		if r.Width < 1 || r.Width > 4 || r.Width != r.Height {
			t.Fatalf("obstacle %d has bad size %+v", i, r)
		}
		if r.X < -30 || r.Y < -30 || r.X+r.Width > 30 || r.Y+r.Height > 30 {
			t.Fatalf("obstacle %d outside the border %+v", i, r)
		}
		for _, p := range []Point{a.PlayerSpawn, a.DummySpawns[0]} {
			if r.Grow(1).Contains(p.X, p.Y) {
				t.Fatalf("obstacle %d covers spawn %v", i, p)
			}
		}
		for j := i + 1; j < len(first); j++ {
			if r.Intersects(first[j]) {
				t.Fatalf("obstacles %d and %d overlap", i, j)
			}
		}
	}

	a.Obstacles.Seed = 4
	if slices.Equal(first, a.obstacles(nil)) {
		t.Fatalf("different seeds should give different layouts")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		arena Arena
	}{
		{"no_border", Arena{Thickness: 1}},
		{"no_thickness", Arena{Border: 10}},
		{"flat_wall", Arena{Border: 10, Thickness: 1, Walls: []Wall{{Width: 1}}}},
		{"bad_obstacles", Arena{Border: 10, Thickness: 1, Obstacles: Obstacles{Count: 2, MinSize: 3, MaxSize: 1}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.arena.Validate(); !errors.Is(err, ErrInvalidArena) {
				t.Fatalf("expected ErrInvalidArena, got %v", err)
			}
		})
	}
}
