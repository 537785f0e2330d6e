// Package schedlang parses the schedule mini-language that scripts timed
// agents and binds it to registered actuator operations.
//
// One statement per line, in the form
//
//	name(args...) @ [delay, ...]:repeat
//
// where delays may nest repeated groups, e.g.
//
//	take1() @ [0.1]:5
//	take2(3, "fast") @ [0.05, [0.1]:5]:1
//	probe() @ [uniform(1.0, 2.0)]:*
//
// Delays are in seconds. A repeat of * repeats forever. Blank lines and
// lines starting with # are ignored.
package schedlang

import (
	"strconv"
	"strings"
)

// An Expr is an argument or delay expression. Function-call expressions are
// re-evaluated every time the value is needed, so stochastic delays yield a
// fresh sample per fire.
type Expr interface {
	exprNode()
}

// A LitExpr is a literal number, string or boolean.
type LitExpr struct {
	Value any
}

func (*LitExpr) exprNode() {}

// A CallExpr invokes a registered function.
type CallExpr struct {
	Name string
	Args []Expr
	Line int
}

func (*CallExpr) exprNode() {}

// An Item is one element of a timing group: either a delay expression or a
// nested group.
type Item struct {
	Expr  Expr
	Group *Group
}

// A Group is a bracketed delay sequence with a repeat count.
type Group struct {
	Items []Item

	// Repeat is the number of times the sequence runs; -1 means forever.
	Repeat int

	Line int
}

// Infinite reports whether the group repeats forever.
func (g *Group) Infinite() bool {
	return g.Repeat < 0
}

// A Statement is one parsed schedule line: an action call and its timing.
type Statement struct {
	Action string
	Args   []Expr
	Timing *Group
	Line   int
}

// Parse parses schedule source text into statements. It reports the first
// syntax error as a ConfigError. Parsed statements still need Resolve to
// become runnable schedules.
func (p *Parser) Parse(src string) ([]*Statement, error) {
	var stmts []*Statement

	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		stmt, err := parseStatement(i+1, trimmed)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

type lineParser struct {
	lex    *lexer
	tok    token
	peeked bool
}

func parseStatement(line int, src string) (*Statement, error) {
	lp := &lineParser{lex: newLexer(line, src)}

	name, args, err := lp.parseCall()
	if err != nil {
		return nil, err
	}

	if err := lp.expectSymbol("@"); err != nil {
		return nil, err
	}

	group, err := lp.parseGroup()
	if err != nil {
		return nil, err
	}

	tok, err := lp.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokEOF {
		return nil, configErrorf(line, "unexpected %q after timing", tok.text)
	}

	return &Statement{Action: name, Args: args, Timing: group, Line: line}, nil
}

func (lp *lineParser) next() (token, error) {
	if lp.peeked {
		lp.peeked = false
		return lp.tok, nil
	}
	return lp.lex.next()
}

func (lp *lineParser) peek() (token, error) {
	if !lp.peeked {
		tok, err := lp.lex.next()
		if err != nil {
			return token{}, err
		}
		lp.tok = tok
		lp.peeked = true
	}
	return lp.tok, nil
}

func (lp *lineParser) expectSymbol(sym string) error {
	tok, err := lp.next()
	if err != nil {
		return err
	}
	if tok.kind != tokSymbol || tok.text != sym {
		return configErrorf(tok.line, "expected %q, found %q", sym, tok.text)
	}
	return nil
}

// parseCall parses IDENT "(" [expr {"," expr}] ")".
func (lp *lineParser) parseCall() (string, []Expr, error) {
	tok, err := lp.next()
	if err != nil {
		return "", nil, err
	}
	if tok.kind != tokIdent {
		return "", nil, configErrorf(tok.line, "expected a name, found %q", tok.text)
	}
	return lp.parseCallNamed(tok)
}

func (lp *lineParser) parseExpr() (Expr, error) {
	tok, err := lp.next()
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, configErrorf(tok.line, "malformed number %q", tok.text)
		}
		return &LitExpr{Value: value}, nil

	case tokString:
		return &LitExpr{Value: tok.text}, nil

	case tokIdent:
		if tok.text == "true" || tok.text == "false" {
			return &LitExpr{Value: tok.text == "true"}, nil
		}

		// A bare identifier must be a function call.
		next, err := lp.peek()
		if err != nil {
			return nil, err
		}
		if next.kind != tokSymbol || next.text != "(" {
			return nil, configErrorf(tok.line,
				"expected a call after %q", tok.text)
		}

		name, args, err := lp.parseCallNamed(tok)
		if err != nil {
			return nil, err
		}
		return &CallExpr{Name: name, Args: args, Line: tok.line}, nil

	default:
		return nil, configErrorf(tok.line, "expected an expression, found %q", tok.text)
	}
}

// parseCallNamed parses the argument list of a call whose name token was
// already consumed.
func (lp *lineParser) parseCallNamed(name token) (string, []Expr, error) {
	if err := lp.expectSymbol("("); err != nil {
		return "", nil, err
	}

	var args []Expr
	tok, err := lp.peek()
	if err != nil {
		return "", nil, err
	}
	if tok.kind == tokSymbol && tok.text == ")" {
		lp.peeked = false
		return name.text, nil, nil
	}

	for {
		arg, err := lp.parseExpr()
		if err != nil {
			return "", nil, err
		}
		args = append(args, arg)

		tok, err := lp.next()
		if err != nil {
			return "", nil, err
		}
		switch {
		case tok.kind == tokSymbol && tok.text == ",":
			continue
		case tok.kind == tokSymbol && tok.text == ")":
			return name.text, args, nil
		default:
			return "", nil, configErrorf(tok.line,
				"expected \",\" or \")\", found %q", tok.text)
		}
	}
}

// parseGroup parses "[" item {"," item} "]" ":" repeat.
func (lp *lineParser) parseGroup() (*Group, error) {
	tok, err := lp.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokSymbol || tok.text != "[" {
		return nil, configErrorf(tok.line, "expected \"[\", found %q", tok.text)
	}

	group := &Group{Line: tok.line}

	for {
		tok, err := lp.peek()
		if err != nil {
			return nil, err
		}

		if tok.kind == tokSymbol && tok.text == "[" {
			sub, err := lp.parseGroup()
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, Item{Group: sub})
		} else {
			expr, err := lp.parseExpr()
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, Item{Expr: expr})
		}

		tok, err = lp.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokSymbol && tok.text == ",":
			continue
		case tok.kind == tokSymbol && tok.text == "]":
			repeat, err := lp.parseRepeat()
			if err != nil {
				return nil, err
			}
			group.Repeat = repeat
			return group, nil
		default:
			return nil, configErrorf(tok.line,
				"expected \",\" or \"]\", found %q", tok.text)
		}
	}
}

func (lp *lineParser) parseRepeat() (int, error) {
	if err := lp.expectSymbol(":"); err != nil {
		return 0, err
	}

	tok, err := lp.next()
	if err != nil {
		return 0, err
	}

	switch {
	case tok.kind == tokSymbol && tok.text == "*":
		return -1, nil
	case tok.kind == tokNumber:
		n, err := strconv.Atoi(tok.text)
		if err != nil || n <= 0 {
			return 0, configErrorf(tok.line,
				"repeat count must be a positive integer, found %q", tok.text)
		}
		return n, nil
	default:
		return 0, configErrorf(tok.line,
			"expected a repeat count or \"*\", found %q", tok.text)
	}
}
