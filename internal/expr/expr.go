// Package expr implements the small algebraic expression/boolean AST that
// the collapse and simplify passes rewrite and fold. It stands in for the
// "assumed available" expression library the wider LEMS toolchain normally
// supplies: a parser, a substitution primitive (Map) and an algebraic
// simplifier, with no dimensional awareness of its own.
package expr

import (
	"fmt"
	"strconv"
)

// Op is an arithmetic or comparison operator tag.
type Op string

// Binary/relational operators recognised by the parser.
const (
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
	OpEq Op = "=="
	OpNe Op = "!="
)

// Expr is a node in the arithmetic expression tree. The zero value is not
// meaningful; construct values with the helpers below or via Parse.
type Expr struct {
	kind exprKind
	// Var
	name string
	// F64
	value float64
	// Add, Mul, Sub, Div, Pow, Neg, Func
	args []Expr
	// Func
	fn string
}

type exprKind int

const (
	kVar exprKind = iota
	kF64
	kAdd
	kMul
	kSub
	kDiv
	kPow
	kNeg
	kFunc
)

// Var builds a variable reference.
func Var(name string) Expr { return Expr{kind: kVar, name: name} }

// F64 builds a numeric literal.
func F64(v float64) Expr { return Expr{kind: kF64, value: v} }

// Add builds an n-ary sum. Two-element sums built by the parser for binary
// `a - b` are represented as Add(a, Neg(b)) so that Simplify only needs to
// reason about one commutative/associative operator.
func Add(args ...Expr) Expr { return Expr{kind: kAdd, args: args} }

// Mul builds an n-ary product.
func Mul(args ...Expr) Expr { return Expr{kind: kMul, args: args} }

// Sub builds a binary subtraction a - b.
func Sub(a, b Expr) Expr { return Expr{kind: kSub, args: []Expr{a, b}} }

// Div builds a binary division a / b.
func Div(a, b Expr) Expr { return Expr{kind: kDiv, args: []Expr{a, b}} }

// Pow builds a binary exponentiation a ^ b.
func Pow(a, b Expr) Expr { return Expr{kind: kPow, args: []Expr{a, b}} }

// Neg builds a unary negation.
func Neg(a Expr) Expr { return Expr{kind: kNeg, args: []Expr{a}} }

// Func builds a named function call, e.g. exp(x).
func Func(name string, args ...Expr) Expr { return Expr{kind: kFunc, fn: name, args: args} }

// IsVar reports whether e is a bare variable reference, returning its name.
func (e Expr) IsVar() (string, bool) {
	if e.kind == kVar {
		return e.name, true
	}
	return "", false
}

// IsF64 reports whether e is a numeric literal, returning its value.
func (e Expr) IsF64() (float64, bool) {
	if e.kind == kF64 {
		return e.value, true
	}
	return 0, false
}

// Equal reports structural equality, used by the simplify fixed-point check.
func (e Expr) Equal(o Expr) bool {
	if e.kind != o.kind || e.name != o.name || e.value != o.value || e.fn != o.fn {
		return false
	}
	if len(e.args) != len(o.args) {
		return false
	}
	for i := range e.args {
		if !e.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (e Expr) String() string {
	switch e.kind {
	case kVar:
		return e.name
	case kF64:
		return strconv.FormatFloat(e.value, 'g', -1, 64)
	case kAdd:
		return joinArgs(e.args, " + ")
	case kMul:
		return joinArgs(e.args, " * ")
	case kSub:
		return fmt.Sprintf("(%s - %s)", e.args[0], e.args[1])
	case kDiv:
		return fmt.Sprintf("(%s / %s)", e.args[0], e.args[1])
	case kPow:
		return fmt.Sprintf("(%s ^ %s)", e.args[0], e.args[1])
	case kNeg:
		return fmt.Sprintf("-%s", e.args[0])
	case kFunc:
		return fmt.Sprintf("%s(%s)", e.fn, joinArgs(e.args, ", "))
	}
	return "?"
}

func joinArgs(args []Expr, sep string) string {
	out := ""
	for i, a := range args {
		if i != 0 {
			out += sep
		}
		out += a.String()
	}
	return "(" + out + ")"
}

// Map applies f to every node of e in post-order: children are mapped
// first, the node is rebuilt from the mapped children, and f is called on
// the rebuilt node last. This mirrors the rename passes in the collapse
// package, which only rewrite Var leaves and return every other node
// unchanged from f.
func Map(e Expr, f func(Expr) Expr) Expr {
	switch e.kind {
	case kVar, kF64:
		return f(e)
	default:
		args := make([]Expr, len(e.args))
		for i, a := range e.args {
			args[i] = Map(a, f)
		}
		rebuilt := e
		rebuilt.args = args
		return f(rebuilt)
	}
}

// Boolean is a boolean-valued expression tree used for DerivedVariable case
// guards.
type Boolean struct {
	kind  boolKind
	value bool
	args  []Boolean
	op    Op
	lhs   Expr
	rhs   Expr
}

type boolKind int

const (
	bLit boolKind = iota
	bAnd
	bOr
	bNot
	bCmp
)

// BoolLit builds a boolean literal.
func BoolLit(v bool) Boolean { return Boolean{kind: bLit, value: v} }

// And builds an n-ary conjunction.
func And(args ...Boolean) Boolean { return Boolean{kind: bAnd, args: args} }

// Or builds an n-ary disjunction.
func Or(args ...Boolean) Boolean { return Boolean{kind: bOr, args: args} }

// Not builds a negation.
func Not(b Boolean) Boolean { return Boolean{kind: bNot, args: []Boolean{b}} }

// Cmp builds a relational comparison lhs op rhs.
func Cmp(op Op, lhs, rhs Expr) Boolean { return Boolean{kind: bCmp, op: op, lhs: lhs, rhs: rhs} }

// Equal reports structural equality between two Boolean trees.
func (b Boolean) Equal(o Boolean) bool {
	if b.kind != o.kind || b.value != o.value || b.op != o.op {
		return false
	}
	if b.kind == bCmp {
		return b.lhs.Equal(o.lhs) && b.rhs.Equal(o.rhs)
	}
	if len(b.args) != len(o.args) {
		return false
	}
	for i := range b.args {
		if !b.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (b Boolean) String() string {
	switch b.kind {
	case bLit:
		return strconv.FormatBool(b.value)
	case bAnd:
		return joinBools(b.args, " && ")
	case bOr:
		return joinBools(b.args, " || ")
	case bNot:
		return "!" + b.args[0].String()
	case bCmp:
		return fmt.Sprintf("(%s %s %s)", b.lhs, b.op, b.rhs)
	}
	return "?"
}

func joinBools(args []Boolean, sep string) string {
	out := ""
	for i, a := range args {
		if i != 0 {
			out += sep
		}
		out += a.String()
	}
	return "(" + out + ")"
}

// MapBool applies f to every Expr leaf reachable from b and rebuilds the
// boolean tree around the results.
func MapBool(b Boolean, f func(Expr) Expr) Boolean {
	switch b.kind {
	case bLit:
		return b
	case bAnd, bOr:
		args := make([]Boolean, len(b.args))
		for i, a := range b.args {
			args[i] = MapBool(a, f)
		}
		b.args = args
		return b
	case bNot:
		return Not(MapBool(b.args[0], f))
	case bCmp:
		return Cmp(b.op, Map(b.lhs, f), Map(b.rhs, f))
	}
	return b
}
