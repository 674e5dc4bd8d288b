package entity

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
)

const aiDispatchScript = `
update(__engine, __state)
`

// ScriptController drives an actor from a tengo script. The script defines
// update(engine, state); engine exposes the actor's view and the intent
// setters, state is a map that survives between ticks.
type ScriptController struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
}

// NewScriptController compiles src once. Use Clone to give each actor its
// own globals.
func NewScriptController(name string, src []byte) (*ScriptController, error) {
	full := string(src) + "\n" + aiDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("entity: compile script %q: %w", name, err)
	}
	return &ScriptController{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (c *ScriptController) Name() string { return c.name }

func (c *ScriptController) Clone() *ScriptController {
	return &ScriptController{
		name:     c.name,
		compiled: c.compiled.Clone(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
}

// Intent runs the script once. A failing script leaves the actor idle for
// the tick.
func (c *ScriptController) Intent(v View) Intent {
	var in Intent
	if c == nil || c.compiled == nil {
		return in
	}
	engine := buildScriptEngine(v, &in)
	if err := c.compiled.Set("__engine", engine); err != nil {
		log.WithPrefix("ai").Warn("script set engine", "script", c.name, "err", err)
		return Intent{}
	}
	if err := c.compiled.Set("__state", c.state); err != nil {
		log.WithPrefix("ai").Warn("script set state", "script", c.name, "err", err)
		return Intent{}
	}
	if err := c.compiled.Run(); err != nil {
		log.WithPrefix("ai").Warn("script update", "script", c.name, "err", err)
		return Intent{}
	}
	return in
}

func vectorObject(v cp.Vector) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func vectorArgs(args []tengo.Object) (cp.Vector, bool) {
	if len(args) < 2 {
		return cp.Vector{}, false
	}
	x, okX := tengo.ToFloat64(args[0])
	y, okY := tengo.ToFloat64(args[1])
	if !okX || !okY || math.IsNaN(x) || math.IsNaN(y) {
		return cp.Vector{}, false
	}
	return cp.Vector{X: x, Y: y}, true
}

func buildScriptEngine(v View, in *Intent) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["get_position"] = &tengo.UserFunction{Name: "get_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(v.Position), nil
	}}
	values["get_velocity"] = &tengo.UserFunction{Name: "get_velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(v.Velocity), nil
	}}
	values["get_health"] = &tengo.UserFunction{Name: "get_health", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: v.Health}, nil
	}}
	values["has_target"] = &tengo.UserFunction{Name: "has_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if v.HasTarget {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}
	values["get_target"] = &tengo.UserFunction{Name: "get_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(v.Target), nil
	}}
	values["line_of_sight"] = &tengo.UserFunction{Name: "line_of_sight", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if v.LineOfSight == nil || !v.LineOfSight() {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		dir, ok := vectorArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		in.Move = dir
		return tengo.TrueValue, nil
	}}
	values["sprint"] = &tengo.UserFunction{Name: "sprint", Value: func(args ...tengo.Object) (tengo.Object, error) {
		in.Sprint = len(args) == 0 || !args[0].IsFalsy()
		return tengo.TrueValue, nil
	}}
	values["aim"] = &tengo.UserFunction{Name: "aim", Value: func(args ...tengo.Object) (tengo.Object, error) {
		p, ok := vectorArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		in.Aim = p
		in.HasAim = true
		return tengo.TrueValue, nil
	}}
	values["fire"] = &tengo.UserFunction{Name: "fire", Value: func(args ...tengo.Object) (tengo.Object, error) {
		in.Fire = true
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
