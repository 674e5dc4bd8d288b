package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
	"golang.org/x/image/colornames"
)

var (
	wallColor    = colornames.Steelblue
	bulletColor  = colornames.Gold
	bodyColor    = colornames.Lightgray
	playerColor  = colornames.Crimson
	dummyColor   = colornames.Darkorange
	corpseColor  = colornames.Dimgray
	facingColor  = colornames.White
	hurtColor    = colornames.White
	backdrop     = color.NRGBA{R: 0x12, G: 0x12, B: 0x16, A: 0xff}
	strokeWidth  = float32(1.5)
	minBallPixel = float32(1.5)
)

// Scene is what the renderer needs for one frame.
type Scene struct {
	World   *physics.World
	Lights  *lighting.Engine
	Player  *entity.Actor
	Dummies []*entity.Actor
	Corpses []entity.Corpse
}

// Stats counts what one frame drew and skipped.
type Stats struct {
	Drawn  int
	Culled int
}

func Clear(screen *ebiten.Image) {
	screen.Fill(backdrop)
}

// DrawScene draws lights under bodies, then corpses, bodies and facings.
func DrawScene(screen *ebiten.Image, cam *Camera, s Scene) Stats {
	if screen == nil || cam == nil || s.World == nil {
		return Stats{}
	}
	drawLights(screen, cam, s.Lights)
	for _, c := range s.Corpses {
		drawCorpse(screen, cam, c)
	}

	tint := map[physics.EntityHandle]color.Color{}
	if s.Player.IsAlive() {
		tint[s.Player.Handle()] = hurtTint(playerColor, s.Player.Hurt())
	}
	for _, d := range s.Dummies {
		tint[d.Handle()] = hurtTint(dummyColor, d.Hurt())
	}

	var stats Stats
	for _, h := range s.World.Handles() {
		sphere, err := s.World.BoundingSphere(h)
		if err != nil {
			continue
		}
		if !cam.Visible(sphere) {
			stats.Culled++
			continue
		}
		pose, shape, err := s.World.PoseAndShape(h)
		if err != nil {
			continue
		}
		clr, ok := tint[h]
		if !ok {
			clr = roleColor(s.World, h)
		}
		drawShape(screen, cam, pose, shape, clr)
		stats.Drawn++
	}

	if s.Player.IsAlive() {
		drawFacing(screen, cam, s.World, s.Player)
	}
	for _, d := range s.Dummies {
		drawFacing(screen, cam, s.World, d)
	}
	return stats
}

// hurtTint fades base toward the flash color while an actor is hurt.
func hurtTint(base color.RGBA, hurt float64) color.Color {
	if hurt <= 0 {
		return base
	}
	mix := func(a, b uint8) uint8 {
		return uint8(common.Lerp(float64(a), float64(b), common.Clamp(hurt, 0, 1)))
	}
	return color.RGBA{
		R: mix(base.R, hurtColor.R),
		G: mix(base.G, hurtColor.G),
		B: mix(base.B, hurtColor.B),
		A: base.A,
	}
}

func roleColor(w *physics.World, h physics.EntityHandle) color.Color {
	role, _ := w.Role(h)
	switch role {
	case physics.RoleWall:
		return wallColor
	case physics.RoleBullet:
		return bulletColor
	default:
		return bodyColor
	}
}

func drawShape(screen *ebiten.Image, cam *Camera, pose physics.Pose, shape physics.Shape, clr color.Color) {
	switch s := shape.(type) {
	case physics.Ball:
		x, y := cam.ToScreen(pose.Position)
		r := float32(s.Radius * cam.Zoom)
		if r < minBallPixel {
			vector.FillCircle(screen, float32(x), float32(y), minBallPixel, clr, true)
			return
		}
		vector.StrokeCircle(screen, float32(x), float32(y), r, strokeWidth, clr, true)
	case physics.Box, physics.Triangle:
		drawPolygon(screen, cam, pose, physics.Vertices(s, cp.Vector{}), clr)
	case physics.Compound:
		for _, part := range physics.WorldParts(pose, s) {
			drawShape(screen, cam, part.Pose, part.Shape, clr)
		}
	}
}

func drawPolygon(screen *ebiten.Image, cam *Camera, pose physics.Pose, local []cp.Vector, clr color.Color) {
	for i := range local {
		ax, ay := cam.ToScreen(pose.Apply(local[i]))
		bx, by := cam.ToScreen(pose.Apply(local[(i+1)%len(local)]))
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), strokeWidth, clr, true)
	}
}

// drawFacing points a short line along the actor's aim. Facing 0 is +y.
func drawFacing(screen *ebiten.Image, cam *Camera, w *physics.World, a *entity.Actor) {
	pos, err := w.Position(a.Handle())
	if err != nil {
		return
	}
	theta := common.Radians(a.Angle + 90)
	tip := pos.Add(cp.ForAngle(theta).Mult(a.Config().Radius * 1.5))
	x1, y1 := cam.ToScreen(pos)
	x2, y2 := cam.ToScreen(tip)
	vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 2, facingColor, true)
}

func drawCorpse(screen *ebiten.Image, cam *Camera, c entity.Corpse) {
	if !cam.WorldRect().Grow(2).Contains(c.Pos.X, c.Pos.Y) {
		return
	}
	x, y := cam.ToScreen(c.Pos)
	// flatter with every stage
	spread := float32(cam.Zoom) * float32(c.Stage) * 0.35
	alpha := uint8(220 - 40*c.Stage)
	clr := color.NRGBA{R: corpseColor.R, G: corpseColor.G, B: corpseColor.B, A: alpha}
	vector.FillCircle(screen, float32(x), float32(y), float32(cam.Zoom)*0.6+spread, clr, true)
}

func drawLights(screen *ebiten.Image, cam *Camera, lights *lighting.Engine) {
	if lights == nil {
		return
	}
	lights.Each(func(_ lighting.Handle, l lighting.Light) {
		if !cam.Visible(physics.Sphere{Center: l.Pos, Radius: l.Radius}) {
			return
		}
		x, y := cam.ToScreen(l.Pos)
		r := float32(l.Radius * cam.Zoom)
		switch l.Kind {
		case lighting.Radial:
			vector.FillCircle(screen, float32(x), float32(y), r, l.Color, true)
		case lighting.Cone:
			drawCone(screen, float32(x), float32(y), r, l)
		case lighting.Ambient:
			vector.FillRect(screen, 0, 0, float32(cam.Width), float32(cam.Height), l.Color, false)
		}
	})
}

func drawCone(screen *ebiten.Image, x, y, r float32, l lighting.Light) {
	var path vector.Path
	path.MoveTo(x, y)
	path.Arc(x, y, r, float32(l.Rotation-l.Spread/2), float32(l.Rotation+l.Spread/2), vector.Clockwise)
	path.Close()
	cr, cg, cb, ca := l.Color.RGBA()
	op := &ebiten.DrawTrianglesOptions{}
	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(cr) / math.MaxUint16
		vs[i].ColorG = float32(cg) / math.MaxUint16
		vs[i].ColorB = float32(cb) / math.MaxUint16
		vs[i].ColorA = float32(ca) / math.MaxUint16
	}
	screen.DrawTriangles(vs, is, whitePixel(), op)
}

var whiteImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	return whiteImage
}
