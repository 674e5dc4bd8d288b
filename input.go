package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/entity"
	"github.com/milk9111/topdown/render"
)

const (
	stickDeadZone = 0.25
	// stickAimReach is how far in world units the right stick aims.
	stickAimReach = 12.0
)

// Input is one frame's snapshot of keyboard, mouse and gamepad.
type Input struct {
	// Move is the raw direction; length does not matter.
	Move   cp.Vector
	Sprint bool
	Fire   bool
	// Aim is the cursor or stick target in world space.
	Aim cp.Vector

	PausePressed      bool
	DebugPressed      bool
	CopyPressed       bool
	SpawnDummyPressed bool
	DropCratePressed  bool
	RespawnPressed    bool

	camera *render.Camera
}

func NewInput(camera *render.Camera) *Input {
	return &Input{camera: camera}
}

// Update polls every device.
func (i *Input) Update(player cp.Vector) {
	mx, my := ebiten.CursorPosition()
	i.Aim = i.camera.ToWorld(float64(mx), float64(my))

	var move cp.Vector
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		move.X -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		move.X += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		move.Y -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		move.Y += 1
	}
	i.Sprint = ebiten.IsKeyPressed(ebiten.KeyShiftLeft)
	i.Fire = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	var gpPause bool
	if ids := ebiten.AppendGamepadIDs(nil); len(ids) > 0 {
		gid := ids[0]
		lx := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal)
		ly := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickVertical)
		if math.Hypot(lx, ly) > stickDeadZone {
			move = cp.Vector{X: lx, Y: ly}
		}
		rx := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisRightStickHorizontal)
		ry := ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisRightStickVertical)
		if math.Hypot(rx, ry) > stickDeadZone {
			i.Aim = player.Add(cp.Vector{X: rx, Y: ry}.Normalize().Mult(stickAimReach))
		}
		i.Fire = i.Fire || ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonFrontBottomRight)
		i.Sprint = i.Sprint || ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonFrontBottomLeft)
		gpPause = inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonCenterRight)
	}
	i.Move = move

	i.PausePressed = inpututil.IsKeyJustPressed(ebiten.KeyEscape) || gpPause
	i.DebugPressed = inpututil.IsKeyJustPressed(ebiten.KeyF1)
	i.CopyPressed = inpututil.IsKeyJustPressed(ebiten.KeyF2)
	i.SpawnDummyPressed = inpututil.IsKeyJustPressed(ebiten.KeyG)
	i.DropCratePressed = inpututil.IsKeyJustPressed(ebiten.KeyB)
	i.RespawnPressed = inpututil.IsKeyJustPressed(ebiten.KeyR)
}

// Intent is what the player actor does with this snapshot.
func (i *Input) Intent() entity.Intent {
	return entity.Intent{
		Move:   i.Move,
		Sprint: i.Sprint,
		Aim:    i.Aim,
		HasAim: true,
		Fire:   i.Fire,
	}
}
