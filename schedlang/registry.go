package schedlang

import (
	"math"
	"math/rand"
)

// An ActionFunc is a registered actuator operation. The arguments come from
// the schedule statement and are re-evaluated at every fire.
type ActionFunc func(args ...any) error

// A Func is a registered helper function usable in schedule expressions,
// such as uniform or randint.
type Func func(args ...any) (any, error)

// A Parser holds the action and function registries and parses schedule
// source against them. Every name a schedule uses must be registered before
// Resolve, and unknown names fail at bind time, not at fire time.
type Parser struct {
	actions map[string]ActionFunc
	funcs   map[string]Func
}

// NewParser creates a Parser with the built-in functions uniform, randint,
// min and max registered.
func NewParser() *Parser {
	p := &Parser{
		actions: make(map[string]ActionFunc),
		funcs:   make(map[string]Func),
	}

	p.RegisterFunction("uniform", builtinUniform)
	p.RegisterFunction("randint", builtinRandint)
	p.RegisterFunction("min", builtinMin)
	p.RegisterFunction("max", builtinMax)

	return p
}

// RegisterAction registers an actuator operation under the given name.
func (p *Parser) RegisterAction(name string, fn ActionFunc) {
	p.actions[name] = fn
}

// RegisterFunction registers an expression function under the given name.
func (p *Parser) RegisterFunction(name string, fn Func) {
	p.funcs[name] = fn
}

func builtinUniform(args ...any) (any, error) {
	a, b, err := floatPair("uniform", args)
	if err != nil {
		return nil, err
	}
	return a + rand.Float64()*(b-a), nil
}

// builtinRandint returns an integer in [a, b], both ends inclusive.
func builtinRandint(args ...any) (any, error) {
	a, b, err := floatPair("randint", args)
	if err != nil {
		return nil, err
	}
	lo, hi := int(a), int(b)
	if hi < lo {
		lo, hi = hi, lo
	}
	return float64(lo + rand.Intn(hi-lo+1)), nil
}

func builtinMin(args ...any) (any, error) {
	return fold("min", args, math.Min)
}

func builtinMax(args ...any) (any, error) {
	return fold("max", args, math.Max)
}

func floatPair(name string, args []any) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, configErrorf(0, "%s expects 2 arguments, got %d", name, len(args))
	}
	a, okA := asFloat(args[0])
	b, okB := asFloat(args[1])
	if !okA || !okB {
		return 0, 0, configErrorf(0, "%s expects numeric arguments", name)
	}
	return a, b, nil
}

func fold(name string, args []any, f func(a, b float64) float64) (any, error) {
	if len(args) == 0 {
		return nil, configErrorf(0, "%s expects at least 1 argument", name)
	}
	acc, ok := asFloat(args[0])
	if !ok {
		return nil, configErrorf(0, "%s expects numeric arguments", name)
	}
	for _, arg := range args[1:] {
		v, ok := asFloat(arg)
		if !ok {
			return nil, configErrorf(0, "%s expects numeric arguments", name)
		}
		acc = f(acc, v)
	}
	return acc, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
