package expr

import "math"

// Simplify folds constants and collapses algebraic identities bottom-up.
// It is used by the simplify pass to turn a parameter/constant substitution
// table into a fully reduced replacement expression; it is not a general
// computer-algebra system, only what constant propagation over a flat LEMS
// symbol table needs.
func Simplify(e Expr) Expr {
	switch e.kind {
	case kVar, kF64:
		return e
	case kNeg:
		inner := Simplify(e.args[0])
		if v, ok := inner.IsF64(); ok {
			return F64(-v)
		}
		if inner.kind == kNeg {
			return inner.args[0]
		}
		return Neg(inner)
	case kAdd:
		return simplifySum(e.args)
	case kMul:
		return simplifyProduct(e.args)
	case kSub:
		a, b := Simplify(e.args[0]), Simplify(e.args[1])
		if av, ok := a.IsF64(); ok {
			if bv, ok := b.IsF64(); ok {
				return F64(av - bv)
			}
		}
		if bv, ok := b.IsF64(); ok && bv == 0 {
			return a
		}
		return Sub(a, b)
	case kDiv:
		a, b := Simplify(e.args[0]), Simplify(e.args[1])
		if av, ok := a.IsF64(); ok {
			if bv, ok := b.IsF64(); ok && bv != 0 {
				return F64(av / bv)
			}
		}
		if bv, ok := b.IsF64(); ok && bv == 1 {
			return a
		}
		return Div(a, b)
	case kPow:
		a, b := Simplify(e.args[0]), Simplify(e.args[1])
		if av, ok := a.IsF64(); ok {
			if bv, ok := b.IsF64(); ok {
				return F64(math.Pow(av, bv))
			}
		}
		if bv, ok := b.IsF64(); ok && bv == 1 {
			return a
		}
		return Pow(a, b)
	case kFunc:
		args := make([]Expr, len(e.args))
		allConst := true
		for i, a := range e.args {
			args[i] = Simplify(a)
			if _, ok := args[i].IsF64(); !ok {
				allConst = false
			}
		}
		if allConst && len(args) == 1 {
			if v, ok := foldUnaryFunc(e.fn, args[0].value); ok {
				return F64(v)
			}
		}
		return Func(e.fn, args...)
	}
	return e
}

// SimplifyBool folds a boolean guard the same way Simplify folds an
// arithmetic expression: constant comparisons collapse to a literal, and
// literals propagate through And/Or/Not.
func SimplifyBool(b Boolean) Boolean {
	switch b.kind {
	case bLit:
		return b
	case bNot:
		inner := SimplifyBool(b.args[0])
		if inner.kind == bLit {
			return BoolLit(!inner.value)
		}
		return Not(inner)
	case bAnd:
		var rest []Boolean
		for _, a := range b.args {
			a = SimplifyBool(a)
			if a.kind == bLit {
				if !a.value {
					return BoolLit(false)
				}
				continue
			}
			rest = append(rest, a)
		}
		if len(rest) == 0 {
			return BoolLit(true)
		}
		if len(rest) == 1 {
			return rest[0]
		}
		return And(rest...)
	case bOr:
		var rest []Boolean
		for _, a := range b.args {
			a = SimplifyBool(a)
			if a.kind == bLit {
				if a.value {
					return BoolLit(true)
				}
				continue
			}
			rest = append(rest, a)
		}
		if len(rest) == 0 {
			return BoolLit(false)
		}
		if len(rest) == 1 {
			return rest[0]
		}
		return Or(rest...)
	case bCmp:
		lhs, rhs := Simplify(b.lhs), Simplify(b.rhs)
		if lv, ok := lhs.IsF64(); ok {
			if rv, ok := rhs.IsF64(); ok {
				return BoolLit(foldCmp(b.op, lv, rv))
			}
		}
		return Cmp(b.op, lhs, rhs)
	}
	return b
}

func foldCmp(op Op, a, b float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	}
	return false
}

func foldUnaryFunc(name string, v float64) (float64, bool) {
	switch name {
	case "exp":
		return math.Exp(v), true
	case "ln":
		return math.Log(v), true
	case "log":
		return math.Log10(v), true
	case "sqrt":
		return math.Sqrt(v), true
	case "abs":
		return math.Abs(v), true
	case "sin":
		return math.Sin(v), true
	case "cos":
		return math.Cos(v), true
	case "tan":
		return math.Tan(v), true
	}
	return 0, false
}

// simplifySum flattens nested sums, folds the constant terms into one, and
// drops a zero constant unless it is the only term left.
func simplifySum(args []Expr) Expr {
	var flat []Expr
	var acc float64
	haveConst := false
	var flatten func(Expr)
	flatten = func(e Expr) {
		e = Simplify(e)
		if e.kind == kAdd {
			for _, a := range e.args {
				flatten(a)
			}
			return
		}
		if v, ok := e.IsF64(); ok {
			acc += v
			haveConst = true
			return
		}
		flat = append(flat, e)
	}
	for _, a := range args {
		flatten(a)
	}
	if haveConst && (acc != 0 || len(flat) == 0) {
		flat = append(flat, F64(acc))
	}
	switch len(flat) {
	case 0:
		return F64(0)
	case 1:
		return flat[0]
	default:
		return Add(flat...)
	}
}

// simplifyProduct flattens nested products, folds the constant factors into
// one, and short-circuits to zero if any factor is exactly zero.
func simplifyProduct(args []Expr) Expr {
	var flat []Expr
	acc := 1.0
	haveConst := false
	var flatten func(Expr)
	flatten = func(e Expr) {
		e = Simplify(e)
		if e.kind == kMul {
			for _, a := range e.args {
				flatten(a)
			}
			return
		}
		if v, ok := e.IsF64(); ok {
			acc *= v
			haveConst = true
			return
		}
		flat = append(flat, e)
	}
	for _, a := range args {
		flatten(a)
	}
	if haveConst && acc == 0 {
		return F64(0)
	}
	if haveConst && (acc != 1 || len(flat) == 0) {
		flat = append(flat, F64(acc))
	}
	switch len(flat) {
	case 0:
		return F64(1)
	case 1:
		return flat[0]
	default:
		return Mul(flat...)
	}
}
