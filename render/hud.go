package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/collision"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

var hudFace ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)

const hudLineHeight = 16

// Info is the state shown by the debug overlay and copied to the clipboard.
type Info struct {
	Arena       string
	TPS         float64
	FPS         float64
	Ticks       uint64
	Alpha       float64
	Bodies      int
	Bullets     int
	Dummies     int
	Corpses     int
	Lights      int
	LightCap    int
	PlayerPos   cp.Vector
	PlayerVel   cp.Vector
	PlayerAngle float64
	Health      float64
	LastTick    collision.TickStats
	Frame       Stats
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "arena: %s\n", i.Arena)
	fmt.Fprintf(&b, "tps: %.1f fps: %.1f\n", i.TPS, i.FPS)
	fmt.Fprintf(&b, "ticks: %d alpha: %.2f\n", i.Ticks, i.Alpha)
	fmt.Fprintf(&b, "bodies: %d drawn: %d culled: %d\n", i.Bodies, i.Frame.Drawn, i.Frame.Culled)
	fmt.Fprintf(&b, "bullets: %d dummies: %d corpses: %d\n", i.Bullets, i.Dummies, i.Corpses)
	fmt.Fprintf(&b, "lights: %d/%d\n", i.Lights, i.LightCap)
	fmt.Fprintf(&b, "player: pos (%.2f, %.2f) vel (%.2f, %.2f) angle %.1f health %.0f\n",
		i.PlayerPos.X, i.PlayerPos.Y, i.PlayerVel.X, i.PlayerVel.Y, i.PlayerAngle, i.Health)
	t := i.LastTick
	fmt.Fprintf(&b, "last tick: events %d forces %d hits %d shots %d corpses %d pruned %d",
		t.Events, t.Forces, t.Hits, t.Shots, t.Corpses, t.Pruned)
	return b.String()
}

// DrawHUD draws the health bar and, when debug is set, the info overlay.
// fraction is the player's health in [0, 1].
func DrawHUD(screen *ebiten.Image, info Info, fraction float64, debug bool) {
	if screen == nil {
		return
	}
	drawHealthBar(screen, fraction)
	if fraction <= 0 {
		drawText(screen, "dead - press R to respawn", 10, float64(screen.Bounds().Dy())-30, colornames.Crimson)
	}
	if !debug {
		return
	}
	for n, line := range strings.Split(info.String(), "\n") {
		drawText(screen, line, 10, 10+float64(n*hudLineHeight), colornames.White)
	}
}

func drawHealthBar(screen *ebiten.Image, fraction float64) {
	const w, h = 200, 12
	x := float32(screen.Bounds().Dx()) - w - 10
	y := float32(10)
	frac := float32(fraction)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	vector.FillRect(screen, x, y, w, h, color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xc0}, false)
	vector.FillRect(screen, x, y, w*frac, h, colornames.Crimson, false)
	vector.StrokeRect(screen, x, y, w, h, 1, colornames.White, false)
}

func drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	ebtext.Draw(screen, s, hudFace, op)
}
