package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

const (
	WorldFile  = "world.yaml"
	PlayerFile = "player.yaml"
	DummyFile  = "dummy.yaml"
	BulletFile = "bullet.yaml"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type Vec2Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// WorldSpec holds the timestep and space-wide settings.
type WorldSpec struct {
	Name          string     `yaml:"name"`
	FixedTimeStep float64    `yaml:"fixed_time_step"`
	MaxFrameTime  float64    `yaml:"max_frame_time"`
	Gravity       Vec2Spec   `yaml:"gravity"`
	Iterations    int        `yaml:"iterations"`
	Damping       float64    `yaml:"damping"`
	LightCapacity int        `yaml:"light_capacity"`
	Seed          uint64     `yaml:"seed"`
	Bullets       BulletDrag `yaml:"bullets"`
}

type BulletDrag struct {
	Drag      float64 `yaml:"drag"`
	StopSpeed float64 `yaml:"stop_speed"`
}

func (s WorldSpec) Validate() error {
	if !(s.FixedTimeStep > 0) || !(s.MaxFrameTime >= s.FixedTimeStep) {
		return fmt.Errorf("%w: world timestep %v, clamp %v", ErrInvalidSpec, s.FixedTimeStep, s.MaxFrameTime)
	}
	if s.Damping < 0 || s.Damping > 1 {
		return fmt.Errorf("%w: world damping %v", ErrInvalidSpec, s.Damping)
	}
	if s.Bullets.Drag < 0 || s.Bullets.StopSpeed < 0 {
		return fmt.Errorf("%w: bullet drag %+v", ErrInvalidSpec, s.Bullets)
	}
	return nil
}

func LoadWorldSpec() (*WorldSpec, error) {
	spec, err := LoadSpec[WorldSpec](WorldFile)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", WorldFile, err)
	}
	return &spec, nil
}

// ActorSpec tunes the player or a dummy.
type ActorSpec struct {
	Name             string    `yaml:"name"`
	Radius           float64   `yaml:"radius"`
	Health           float64   `yaml:"health"`
	Deflection       float64   `yaml:"deflection"`
	WalkSpeed        float64   `yaml:"walk_speed"`
	SprintSpeed      float64   `yaml:"sprint_speed"`
	WalkAcceleration float64   `yaml:"walk_acceleration"`
	Light            LightSpec `yaml:"light"`
	Script           string    `yaml:"script"`
}

type LightSpec struct {
	Radius float64    `yaml:"radius"`
	Color  *YAMLColor `yaml:"color"`
}

func (s ActorSpec) Validate() error {
	if !(s.Radius > 0) || !(s.Health > 0) {
		return fmt.Errorf("%w: actor %q radius %v health %v", ErrInvalidSpec, s.Name, s.Radius, s.Health)
	}
	if !(s.WalkSpeed > 0) || !(s.SprintSpeed > 0) || s.WalkAcceleration < 0 {
		return fmt.Errorf("%w: actor %q speeds", ErrInvalidSpec, s.Name)
	}
	return nil
}

func LoadActorSpec(filename string) (*ActorSpec, error) {
	spec, err := LoadSpec[ActorSpec](filename)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return &spec, nil
}

// BulletSpec describes the weapon every actor carries.
type BulletSpec struct {
	Name          string       `yaml:"name"`
	Speed         float64      `yaml:"speed"`
	Radius        float64      `yaml:"radius"`
	FireInterval  float64      `yaml:"fire_interval"`
	SpawnDistance float64      `yaml:"spawn_distance"`
	Accuracy      float64      `yaml:"accuracy"`
	Material      MaterialSpec `yaml:"material"`
}

type MaterialSpec struct {
	Density     float64 `yaml:"density"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
}

func (s BulletSpec) Validate() error {
	if !(s.Speed > 0) || !(s.Radius > 0) || !(s.Material.Density > 0) {
		return fmt.Errorf("%w: bullet speed %v radius %v density %v", ErrInvalidSpec, s.Speed, s.Radius, s.Material.Density)
	}
	return nil
}

func LoadBulletSpec() (*BulletSpec, error) {
	spec, err := LoadSpec[BulletSpec](BulletFile)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", BulletFile, err)
	}
	return &spec, nil
}

type YAMLColor struct {
	color.NRGBA
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	var rgba [4]uint8
	rgba[3] = 255
	for i := 0; i < len(s)/2; i++ {
		v, err := parse(i * 2)
		if err != nil {
			return fmt.Errorf("invalid color format: %s", value.Value)
		}
		rgba[i] = v
	}

	c.NRGBA = color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	return nil
}
