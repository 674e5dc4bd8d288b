package entity

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/lighting"
	"github.com/milk9111/topdown/physics"
)

const testDT = 1.0 / 200.0

func newTestWorld() (*physics.World, *physics.Builder, *lighting.Engine) {
	w := physics.NewWorld(physics.DefaultConfig())
	w.SetTimeStep(testDT)
	return w, physics.NewBuilder(w), lighting.NewEngine(lighting.DefaultCapacity)
}

func spawnTestActor(t *testing.T, b *physics.Builder, lights *lighting.Engine, pos cp.Vector) *Actor {
	t.Helper()
	a, err := SpawnActor(b, lights, DefaultActorConfig(), pos)
	if err != nil {
		t.Fatalf("spawn actor: %v", err)
	}
	return a
}

func TestMoveSettlesAtMaxSpeed(t *testing.T) {
	cases := []struct {
		name   string
		sprint bool
		want   float64
	}{
		{"walk", false, 4.5},
		{"sprint", true, 8.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, b, lights := newTestWorld()
			a := spawnTestActor(t, b, lights, cp.Vector{})
			in := Intent{Move: cp.Vector{X: 3}, Sprint: c.sprint}
			for i := 0; i < 2000; i++ {
				a.Move(w, in, testDT)
				w.Step()
			}
			vel, _ := w.LinearVelocity(a.Handle())
			if math.Abs(vel.X-c.want) > 0.01 || math.Abs(vel.Y) > 1e-9 {
				t.Fatalf("expected velocity near (%v, 0), got %v", c.want, vel)
			}
		})
	}
}

func TestMoveWithoutInputBrakes(t *testing.T) {
	w, b, lights := newTestWorld()
	a := spawnTestActor(t, b, lights, cp.Vector{})
	_ = w.SetLinearVelocity(a.Handle(), cp.Vector{Y: 4})
	for i := 0; i < 1000; i++ {
		a.Move(w, Intent{}, testDT)
		w.Step()
	}
	vel, _ := w.LinearVelocity(a.Handle())
	if vel.Length() > 0.01 {
		t.Fatalf("idle actor should come to rest, got %v", vel)
	}
}

func TestFacingDegrees(t *testing.T) {
	cases := []struct {
		name   string
		target cp.Vector
		want   float64
	}{
		{"right", cp.Vector{X: 1}, -90},
		{"up", cp.Vector{Y: 1}, 0},
		{"left", cp.Vector{X: -1}, 90},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FacingDegrees(cp.Vector{}, c.target); math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("FacingDegrees(%v) = %v, want %v", c.target, got, c.want)
			}
		})
	}
}

func TestShootRespectsCooldown(t *testing.T) {
	w, b, lights := newTestWorld()
	a := spawnTestActor(t, b, lights, cp.Vector{})
	weapon := DefaultWeaponConfig()
	target := cp.Vector{X: 10}

	if _, ok, err := a.Shoot(b, w, weapon, target, nil); ok || err != nil {
		t.Fatalf("fresh actor must wait for the fire interval, ok=%v err=%v", ok, err)
	}
	a.Cooldown(0.2)
	h, ok, err := a.Shoot(b, w, weapon, target, nil)
	if !ok || err != nil {
		t.Fatalf("expected a shot, ok=%v err=%v", ok, err)
	}
	if a.SinceShot != 0 {
		t.Fatalf("cooldown should reset, got %v", a.SinceShot)
	}
	pos, _ := w.Position(h)
	if pos.Distance(cp.Vector{X: 2}) > 1e-9 {
		t.Fatalf("bullet should spawn two units out, got %v", pos)
	}
	vel, _ := w.LinearVelocity(h)
	if vel.Distance(cp.Vector{X: 160}) > 1e-9 {
		t.Fatalf("expected bullet velocity (160, 0), got %v", vel)
	}
	if role, _ := w.Role(h); role != physics.RoleBullet {
		t.Fatalf("expected bullet role, got %v", role)
	}
	if _, ok, _ := a.Shoot(b, w, weapon, target, nil); ok {
		t.Fatalf("second shot in the same tick must be refused")
	}
}

func TestShootSpreadStaysInCone(t *testing.T) {
	w, b, lights := newTestWorld()
	a := spawnTestActor(t, b, lights, cp.Vector{})
	weapon := DefaultWeaponConfig()
	rng := rand.New(rand.NewPCG(1, 2))
	maxAngle := math.Pi / 2 / weapon.Accuracy

	for i := 0; i < 20; i++ {
		a.Cooldown(1)
		h, ok, err := a.Shoot(b, w, weapon, cp.Vector{X: 10}, rng)
		if !ok || err != nil {
			t.Fatalf("shot %d failed: ok=%v err=%v", i, ok, err)
		}
		vel, _ := w.LinearVelocity(h)
		if math.Abs(vel.ToAngle()) > maxAngle+1e-9 {
			t.Fatalf("shot %d outside the cone: %v rad", i, vel.ToAngle())
		}
		if math.Abs(vel.Length()-weapon.BulletSpeed) > 1e-9 {
			t.Fatalf("spread must not change speed, got %v", vel.Length())
		}
	}
}

func TestLineOfSight(t *testing.T) {
	w, b, lights := newTestWorld()
	a := spawnTestActor(t, b, lights, cp.Vector{})
	player := spawnTestActor(t, b, lights, cp.Vector{X: 10})
	target, _ := w.Position(player.Handle())

	v := a.View(w, target, true)
	if v.LineOfSight == nil || !v.LineOfSight() {
		t.Fatalf("open line should be visible")
	}

	if _, err := b.SpawnRect(common.Rect{X: 4, Y: -2, Width: 2, Height: 4}, physics.DefaultMaterial()); err != nil {
		t.Fatalf("spawn wall: %v", err)
	}
	v = a.View(w, target, true)
	if v.LineOfSight() {
		t.Fatalf("wall should block the line")
	}

	if a.View(w, cp.Vector{}, false).LineOfSight != nil {
		t.Fatalf("no target means no line of sight check")
	}
}

func TestSpawnActorWithoutLight(t *testing.T) {
	w, b, _ := newTestWorld()
	lights := lighting.NewEngine(1)
	first := spawnTestActor(t, b, lights, cp.Vector{})
	second := spawnTestActor(t, b, lights, cp.Vector{X: 5})
	if _, ok := first.Light(); !ok {
		t.Fatalf("first actor should own a light")
	}
	if _, ok := second.Light(); ok {
		t.Fatalf("second actor should spawn dark")
	}
	if !w.Contains(second.Handle()) {
		t.Fatalf("dark actor still needs a body")
	}
}

func TestRegistryRemoveBulletByIdentity(t *testing.T) {
	w, b, _ := newTestWorld()
	r := NewRegistry()
	var hs []physics.EntityHandle
	for i := 0; i < 3; i++ {
		h, err := b.Spawn(physics.BodyArgs{Position: cp.Vector{X: float64(i) * 5}}, DefaultWeaponConfig().Material, physics.Ball{Radius: 0.1})
		if err != nil {
			t.Fatalf("spawn: %v", err)
		}
		r.AddBullet(h)
		hs = append(hs, h)
	}
	r.AddBullet(hs[0])
	if r.BulletCount() != 3 {
		t.Fatalf("duplicate add should be ignored, count %d", r.BulletCount())
	}
	if !r.RemoveBullet(hs[0]) || r.RemoveBullet(hs[0]) {
		t.Fatalf("remove should succeed exactly once")
	}
	if r.HasBullet(hs[0]) || !r.HasBullet(hs[1]) || !r.HasBullet(hs[2]) {
		t.Fatalf("wrong bullets left: %v", r.Bullets())
	}
	if !w.Contains(hs[0]) {
		t.Fatalf("RemoveBullet must not delete the body")
	}
}

func TestUpdateBulletsDragPrunes(t *testing.T) {
	w, b, _ := newTestWorld()
	r := NewRegistry()
	h, err := b.Spawn(physics.BodyArgs{Velocity: cp.Vector{X: 160}, Role: physics.RoleBullet}, DefaultWeaponConfig().Material, physics.Ball{Radius: 0.1})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	r.AddBullet(h)

	policy := DefaultBulletPolicy()
	prev := 160.0
	for i := 0; i < 2000 && r.BulletCount() > 0; i++ {
		w.Step()
		r.UpdateBullets(w, policy, testDT)
		if vel, err := w.LinearVelocity(h); err == nil {
			if vel.Length() > prev+1e-9 {
				t.Fatalf("drag must not speed the bullet up: %v -> %v", prev, vel.Length())
			}
			prev = vel.Length()
		}
	}
	if r.BulletCount() != 0 {
		t.Fatalf("free bullet should eventually be pruned")
	}
	if w.Contains(h) {
		t.Fatalf("pruned bullet body should be deleted")
	}
}

func TestUpdateBulletsDropsStale(t *testing.T) {
	w, b, _ := newTestWorld()
	r := NewRegistry()
	h, _ := b.Spawn(physics.BodyArgs{Velocity: cp.Vector{X: 100}}, DefaultWeaponConfig().Material, physics.Ball{Radius: 0.1})
	r.AddBullet(h)
	_ = w.Remove(h)
	if pruned := r.UpdateBullets(w, DefaultBulletPolicy(), testDT); pruned != 0 {
		t.Fatalf("stale bullets are dropped, not counted as pruned")
	}
	if r.BulletCount() != 0 {
		t.Fatalf("stale bullet should be gone")
	}
}

func TestReapDummiesOnce(t *testing.T) {
	w, b, lights := newTestWorld()
	r := NewRegistry()
	dead := spawnTestActor(t, b, lights, cp.Vector{X: 3, Y: 4})
	alive := spawnTestActor(t, b, lights, cp.Vector{X: -3})
	r.AddDummy(dead)
	r.AddDummy(alive)
	dead.AimAt(w, cp.Vector{X: 10, Y: 4})
	dead.HealthPool().ApplyDamage(1000)

	corpses := r.ReapDummies(w, lights)
	if len(corpses) != 1 {
		t.Fatalf("expected one corpse, got %d", len(corpses))
	}
	c := corpses[0]
	if c.Pos.Distance(cp.Vector{X: 3, Y: 4}) > 1e-9 || c.Angle != -90 || c.Stage != 1 {
		t.Fatalf("unexpected corpse %+v", c)
	}
	if w.Contains(dead.Handle()) {
		t.Fatalf("dead dummy body should be deleted")
	}
	if lights.Len() != 1 {
		t.Fatalf("dead dummy light should be released, %d live", lights.Len())
	}
	if len(r.Dummies()) != 1 || r.Dummies()[0] != alive {
		t.Fatalf("living dummy should remain")
	}

	if again := r.ReapDummies(w, lights); len(again) != 0 {
		t.Fatalf("corpse conversion must happen once")
	}
	if len(r.Corpses()) != 1 {
		t.Fatalf("expected one recorded corpse, got %d", len(r.Corpses()))
	}
}

func TestCorpseStages(t *testing.T) {
	c := Corpse{Stage: 1}
	steps := []struct {
		dt   float64
		want int
	}{
		{0.05, 1},
		{0.06, 2},
		{0.1, 3},
		{1.0, 4},
		{1.0, 4},
	}
	for i, s := range steps {
		c.Update(s.dt)
		if c.Stage != s.want {
			t.Fatalf("step %d: expected stage %d, got %d", i, s.want, c.Stage)
		}
	}
	if !c.Settled() {
		t.Fatalf("last stage should be final")
	}
}

func TestRegistryUpdateCorpses(t *testing.T) {
	r := NewRegistry()
	r.corpses = []Corpse{{Stage: 1}, {Stage: 4}}
	for i := 0; i < 10; i++ {
		r.UpdateCorpses(0.1)
	}
	for i, c := range r.Corpses() {
		if c.Stage != CorpseStages {
			t.Fatalf("corpse %d stuck at stage %d", i, c.Stage)
		}
	}
	if r.corpses[1].timer != 0 {
		t.Fatalf("settled corpse should not keep animating, timer %v", r.corpses[1].timer)
	}
}

func TestDamageStartsHurtFlash(t *testing.T) {
	_, b, lights := newTestWorld()
	a := spawnTestActor(t, b, lights, cp.Vector{})
	if a.Hurt() != 0 {
		t.Fatalf("fresh actor should not flash, got %v", a.Hurt())
	}
	a.HealthPool().ApplyDamage(10)
	if a.Hurt() != 1 {
		t.Fatalf("expected a full flash after damage, got %v", a.Hurt())
	}
	a.Cooldown(HurtFlashDuration / 2)
	if h := a.Hurt(); math.Abs(h-0.5) > 1e-9 {
		t.Fatalf("expected half the flash left, got %v", h)
	}
	a.Cooldown(HurtFlashDuration)
	if a.Hurt() != 0 {
		t.Fatalf("flash should have faded, got %v", a.Hurt())
	}
}
