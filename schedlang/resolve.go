package schedlang

import (
	"log"
	"time"

	"github.com/hfxlab/tempo/timeline"
)

// Resolve binds parsed statements to the registered actions and functions
// and returns one lazy timeline.Schedule per statement, in source order.
// Every referenced name is validated here; an unknown action or function is
// a ConfigError and nothing is partially bound.
func (p *Parser) Resolve(stmts []*Statement) ([]timeline.Schedule, error) {
	for _, stmt := range stmts {
		if _, ok := p.actions[stmt.Action]; !ok {
			return nil, configErrorf(stmt.Line, "unknown action %q", stmt.Action)
		}
		if err := p.validateExprs(stmt.Args); err != nil {
			return nil, err
		}
		if err := p.validateGroup(stmt.Timing); err != nil {
			return nil, err
		}
	}

	schedules := make([]timeline.Schedule, 0, len(stmts))
	for _, stmt := range stmts {
		fn := p.actions[stmt.Action]
		args := stmt.Args
		action := timeline.NamedAction(stmt.Action, func() error {
			values, err := p.evalAll(args)
			if err != nil {
				return err
			}
			return fn(values...)
		})

		schedules = append(schedules, &boundSchedule{
			parser: p,
			action: action,
			delays: newGroupCursor(stmt.Timing),
		})
	}

	return schedules, nil
}

// Load parses and resolves schedule source in one step.
func (p *Parser) Load(src string) ([]timeline.Schedule, error) {
	stmts, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	return p.Resolve(stmts)
}

func (p *Parser) validateExprs(exprs []Expr) error {
	for _, expr := range exprs {
		call, ok := expr.(*CallExpr)
		if !ok {
			continue
		}
		if _, registered := p.funcs[call.Name]; !registered {
			return configErrorf(call.Line, "unknown function %q", call.Name)
		}
		if err := p.validateExprs(call.Args); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) validateGroup(g *Group) error {
	if len(g.Items) == 0 {
		return configErrorf(g.Line, "empty delay group")
	}
	for _, item := range g.Items {
		if item.Group != nil {
			if err := p.validateGroup(item.Group); err != nil {
				return err
			}
			continue
		}
		if err := p.validateExprs([]Expr{item.Expr}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) eval(expr Expr) (any, error) {
	switch e := expr.(type) {
	case *LitExpr:
		return e.Value, nil
	case *CallExpr:
		args, err := p.evalAll(e.Args)
		if err != nil {
			return nil, err
		}
		return p.funcs[e.Name](args...)
	default:
		log.Panicf("unhandled expression type %T", expr)
		return nil, nil
	}
}

func (p *Parser) evalAll(exprs []Expr) ([]any, error) {
	values := make([]any, len(exprs))
	for i, expr := range exprs {
		v, err := p.eval(expr)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// boundSchedule walks a timing group lazily, evaluating one delay per pull,
// and yields the same bound action for every fire. Infinite groups stream
// without ever materialising.
type boundSchedule struct {
	parser *Parser
	action timeline.Action
	delays *groupCursor
}

func (s *boundSchedule) Next() (time.Duration, timeline.Action, bool) {
	expr, ok := s.delays.next()
	if !ok {
		return 0, nil, false
	}

	value, err := s.parser.eval(expr)
	if err != nil {
		// A delay expression that cannot be evaluated means the schedule
		// object itself is broken, not a runtime condition.
		log.Panicf("schedule delay evaluation failed: %v", err)
	}

	seconds, isNum := asFloat(value)
	if !isNum {
		log.Panicf("schedule delay evaluated to non-numeric value %v", value)
	}

	return time.Duration(seconds * float64(time.Second)), s.action, true
}

// groupCursor iterates the delay expressions of a group, recursing into
// nested groups and honouring repeat counts.
type groupCursor struct {
	group *Group
	rep   int
	idx   int
	child *groupCursor
}

func newGroupCursor(g *Group) *groupCursor {
	return &groupCursor{group: g}
}

func (c *groupCursor) next() (Expr, bool) {
	for {
		if c.idx >= len(c.group.Items) {
			c.rep++
			if !c.group.Infinite() && c.rep >= c.group.Repeat {
				return nil, false
			}
			c.idx = 0
		}

		item := c.group.Items[c.idx]
		if item.Group == nil {
			c.idx++
			return item.Expr, true
		}

		if c.child == nil {
			c.child = newGroupCursor(item.Group)
		}
		if expr, ok := c.child.next(); ok {
			return expr, true
		}
		c.child = nil
		c.idx++
	}
}
