package stdlib

import (
	"math"

	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/values"
)

func mathHandler(ctx registry.CallContext, name string, args []values.Value) (values.Value, bool, error) {
	switch name {
	case "math.abs":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "math.abs expects 1 argument, got %d", len(args))
		}
		if i, ok := args[0].AsInt(); ok {
			if i < 0 {
				i = -i
			}
			return values.NewInt(i), true, nil
		}
		if f, ok := args[0].AsFloat(); ok {
			return values.NewFloat(math.Abs(f)), true, nil
		}
		return values.Value{}, true, errs.New(errs.NativeError, "math.abs expects a number, got %s", args[0].Type())
	case "math.sqrt":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "math.sqrt expects 1 argument, got %d", len(args))
		}
		var f float64
		if v, ok := args[0].AsFloat(); ok {
			f = v
		} else if i, ok := args[0].AsInt(); ok {
			f = float64(i)
		} else {
			return values.Value{}, true, errs.New(errs.NativeError, "math.sqrt expects a number, got %s", args[0].Type())
		}
		return values.NewFloat(math.Sqrt(f)), true, nil
	case "math.max", "math.min":
		if len(args) != 2 {
			return values.Value{}, true, errs.New(errs.NativeError, "%s expects 2 arguments, got %d", name, len(args))
		}
		cmp, err := values.Compare(args[0], args[1])
		if err != nil {
			return values.Value{}, true, err
		}
		if (name == "math.max" && cmp >= 0) || (name == "math.min" && cmp <= 0) {
			return args[0], true, nil
		}
		return args[1], true, nil
	default:
		return values.Value{}, false, nil
	}
}
