package values

import (
	"math"

	"github.com/rufflang/ruff-sub004/errs"
)

// Add implements spec §4.2's overloaded Add contract: Int+Int->Int (two's
// complement wrap), Float+Float->Float, Int+Float/Float+Int->Float
// (promotion), String+String->String. Any other combination is a TypeError.
func Add(a, b Value) (Value, error) {
	switch {
	case a.typ == Int && b.typ == Int:
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return NewInt(ai + bi), nil // Go int64 addition already wraps two's-complement
	case a.typ == Float && b.typ == Float:
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return NewFloat(af + bf), nil
	case a.typ == Int && b.typ == Float:
		ai, _ := a.AsInt()
		bf, _ := b.AsFloat()
		return NewFloat(float64(ai) + bf), nil
	case a.typ == Float && b.typ == Int:
		af, _ := a.AsFloat()
		bi, _ := b.AsInt()
		return NewFloat(af + float64(bi)), nil
	case a.typ == String && b.typ == String:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		return NewString(as + bs), nil
	default:
		return Value{}, errs.New(errs.TypeError, "cannot add %s and %s", a.typ, b.typ)
	}
}

func numericPromote(a, b Value) (af, bf float64, bothInt bool, ai, bi int64, ok bool) {
	switch {
	case a.typ == Int && b.typ == Int:
		ai, _ = a.AsInt()
		bi, _ = b.AsInt()
		return 0, 0, true, ai, bi, true
	case a.typ == Int && b.typ == Float:
		x, _ := a.AsInt()
		y, _ := b.AsFloat()
		return float64(x), y, false, 0, 0, true
	case a.typ == Float && b.typ == Int:
		x, _ := a.AsFloat()
		y, _ := b.AsInt()
		return x, float64(y), false, 0, 0, true
	case a.typ == Float && b.typ == Float:
		x, _ := a.AsFloat()
		y, _ := b.AsFloat()
		return x, y, false, 0, 0, true
	default:
		return 0, 0, false, 0, 0, false
	}
}

func Sub(a, b Value) (Value, error) {
	af, bf, bothInt, ai, bi, ok := numericPromote(a, b)
	if !ok {
		return Value{}, errs.New(errs.TypeError, "cannot subtract %s and %s", a.typ, b.typ)
	}
	if bothInt {
		return NewInt(ai - bi), nil
	}
	return NewFloat(af - bf), nil
}

func Mul(a, b Value) (Value, error) {
	af, bf, bothInt, ai, bi, ok := numericPromote(a, b)
	if !ok {
		return Value{}, errs.New(errs.TypeError, "cannot multiply %s and %s", a.typ, b.typ)
	}
	if bothInt {
		return NewInt(ai * bi), nil
	}
	return NewFloat(af * bf), nil
}

func Div(a, b Value) (Value, error) {
	af, bf, bothInt, ai, bi, ok := numericPromote(a, b)
	if !ok {
		return Value{}, errs.New(errs.TypeError, "cannot divide %s and %s", a.typ, b.typ)
	}
	if bothInt {
		if bi == 0 {
			return Value{}, errs.New(errs.RuntimeError, "integer division by zero")
		}
		return NewInt(ai / bi), nil
	}
	// Float division by zero yields IEEE +/-Inf or NaN, never an error.
	return NewFloat(af / bf), nil
}

func Mod(a, b Value) (Value, error) {
	af, bf, bothInt, ai, bi, ok := numericPromote(a, b)
	if !ok {
		return Value{}, errs.New(errs.TypeError, "cannot modulo %s and %s", a.typ, b.typ)
	}
	if bothInt {
		if bi == 0 {
			return Value{}, errs.New(errs.RuntimeError, "integer modulo by zero")
		}
		return NewInt(ai % bi), nil
	}
	return NewFloat(math.Mod(af, bf)), nil
}

func Negate(a Value) (Value, error) {
	switch a.typ {
	case Int:
		i, _ := a.AsInt()
		return NewInt(-i), nil
	case Float:
		f, _ := a.AsFloat()
		return NewFloat(-f), nil
	default:
		return Value{}, errs.New(errs.TypeError, "cannot negate %s", a.typ)
	}
}

func Not(a Value) Value {
	return NewBool(!a.Truthy())
}

// Compare returns -1, 0, 1 for ordered comparisons on Int/Float/String.
func Compare(a, b Value) (int, error) {
	af, bf, bothInt, ai, bi, ok := numericPromote(a, b)
	if ok {
		if bothInt {
			switch {
			case ai < bi:
				return -1, nil
			case ai > bi:
				return 1, nil
			default:
				return 0, nil
			}
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.typ == String && b.typ == String {
		as, _ := a.AsString()
		bs, _ := b.AsString()
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, errs.New(errs.TypeError, "cannot compare %s and %s", a.typ, b.typ)
}
