// Package expr parses invariant text, binds it to a function's declarations
// and evaluates it over interval states.
//
// The accepted language is the side-effect free integer fragment shared by C
// and Go: identifiers, integer literals, unary + - !, the binary operators
// + - * / %, comparisons, && and ||, and parentheses.
package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/witness/internal/analysis"
	"github.com/gnolang/witness/internal/analysis/cfg"
	"github.com/gnolang/witness/internal/analysis/lattice"
)

// SyntaxError reports invariant text outside the accepted language.
type SyntaxError struct {
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Text, e.Msg)
}

// BindError reports an identifier not declared in the binding scope.
type BindError struct {
	Name     string
	Function string
}

func (e *BindError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("undeclared identifier %q", e.Name)
	}
	return fmt.Sprintf("undeclared identifier %q in function %s", e.Name, e.Function)
}

// Unbound is a parsed expression whose identifiers have not been resolved.
type Unbound struct {
	text string
	node ast.Expr
}

func (u *Unbound) String() string { return u.text }

// Expr is an expression bound to a scope, ready for evaluation.
type Expr struct {
	text string
	node ast.Expr
	vars []string
}

func (e *Expr) String() string { return e.text }

// Vars returns the identifiers used by e in order of first use.
func (e *Expr) Vars() []string { return e.vars }

// Parse parses text into an unbound expression.
func Parse(text string) (*Unbound, error) {
	node, err := parser.ParseExpr(text)
	if err != nil {
		return nil, &SyntaxError{Text: text, Msg: err.Error()}
	}
	if err := check(node); err != nil {
		return nil, &SyntaxError{Text: text, Msg: err.Error()}
	}
	return &Unbound{text: text, node: node}, nil
}

func check(root ast.Expr) error {
	var err error
	ast.Inspect(root, func(n ast.Node) bool {
		if err != nil || n == nil {
			return false
		}
		switch n := n.(type) {
		case *ast.Ident, *ast.ParenExpr:
		case *ast.BasicLit:
			if n.Kind != token.INT {
				err = fmt.Errorf("unsupported literal %s", n.Value)
			} else if _, perr := strconv.ParseInt(n.Value, 0, 64); perr != nil {
				err = fmt.Errorf("integer literal %s out of range", n.Value)
			}
		case *ast.UnaryExpr:
			switch n.Op {
			case token.ADD, token.SUB, token.NOT:
			default:
				err = fmt.Errorf("unsupported unary operator %s", n.Op)
			}
		case *ast.BinaryExpr:
			switch n.Op {
			case token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
				token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
				token.LAND, token.LOR:
			default:
				err = fmt.Errorf("unsupported operator %s", n.Op)
			}
		default:
			err = fmt.Errorf("unsupported expression %T", n)
		}
		return err == nil
	})
	return err
}

// Bind resolves the identifiers of u against fn's declarations and globals.
// fn may be nil, in which case only globals are in scope.
func Bind(u *Unbound, fn *cfg.Function, globals map[string]bool) (*Expr, error) {
	var (
		vars []string
		seen = make(map[string]bool)
		err  error
	)
	// Binding rewrites the tree, so work on a private copy.
	root, perr := parser.ParseExpr(u.text)
	if perr != nil {
		return nil, &SyntaxError{Text: u.text, Msg: perr.Error()}
	}
	node := astutil.Apply(root, func(c *astutil.Cursor) bool {
		if err != nil {
			return false
		}
		id, ok := c.Node().(*ast.Ident)
		if !ok {
			return true
		}
		if !globals[id.Name] && (fn == nil || !fn.Declares(id.Name)) {
			be := &BindError{Name: id.Name}
			if fn != nil {
				be.Function = fn.Name
			}
			err = be
			return false
		}
		if !seen[id.Name] {
			seen[id.Name] = true
			vars = append(vars, id.Name)
		}
		return true
	}, func(c *astutil.Cursor) bool {
		if p, ok := c.Node().(*ast.ParenExpr); ok {
			c.Replace(p.X)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return &Expr{text: u.text, node: node.(ast.Expr), vars: vars}, nil
}

// Eval evaluates e over state. A nil state is unreachable.
func (e *Expr) Eval(state lattice.AbstractState) analysis.Truth {
	if state == nil {
		return analysis.Unreachable
	}
	switch lattice.Truthiness(e.Value(state)) {
	case lattice.True:
		return analysis.True
	case lattice.False:
		return analysis.False
	default:
		return analysis.Unknown
	}
}

// Value evaluates e to an interval over state.
func (e *Expr) Value(state lattice.AbstractState) lattice.Interval {
	return eval(e.node, state)
}

func eval(n ast.Expr, state lattice.AbstractState) lattice.Interval {
	switch n := n.(type) {
	case *ast.Ident:
		return lattice.GetValue(state, n.Name)
	case *ast.BasicLit:
		v, _ := strconv.ParseInt(n.Value, 0, 64)
		return lattice.Const(v)
	case *ast.ParenExpr:
		return eval(n.X, state)
	case *ast.UnaryExpr:
		x := eval(n.X, state)
		switch n.Op {
		case token.SUB:
			return lattice.Neg(x)
		case token.NOT:
			return lattice.Not(x)
		default:
			return x
		}
	case *ast.BinaryExpr:
		x, y := eval(n.X, state), eval(n.Y, state)
		switch n.Op {
		case token.ADD:
			return lattice.Add(x, y)
		case token.SUB:
			return lattice.Sub(x, y)
		case token.MUL:
			return lattice.Mul(x, y)
		case token.QUO:
			return lattice.Div(x, y)
		case token.REM:
			return lattice.Rem(x, y)
		case token.EQL:
			return lattice.Eq(x, y)
		case token.NEQ:
			return lattice.Not(lattice.Eq(x, y))
		case token.LSS:
			return lattice.Lt(x, y)
		case token.LEQ:
			return lattice.Le(x, y)
		case token.GTR:
			return lattice.Lt(y, x)
		case token.GEQ:
			return lattice.Le(y, x)
		case token.LAND:
			return lattice.And(x, y)
		case token.LOR:
			return lattice.Or(x, y)
		}
	}
	return lattice.Top()
}

// Parser implements analysis.Parser with a fixed set of globals in scope.
type Parser struct {
	globals map[string]bool
}

func NewParser(globals ...string) *Parser {
	p := &Parser{globals: make(map[string]bool, len(globals))}
	for _, g := range globals {
		p.globals[g] = true
	}
	return p
}

func (p *Parser) Parse(text string) (analysis.Unbound, error) {
	u, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (p *Parser) Bind(u analysis.Unbound, fn *cfg.Function) (analysis.Expr, error) {
	ub, ok := u.(*Unbound)
	if !ok {
		return nil, fmt.Errorf("expr: cannot bind %T", u)
	}
	e, err := Bind(ub, fn, p.globals)
	if err != nil {
		return nil, err
	}
	return e, nil
}
