package stdlib

import (
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/values"
)

// collectionsHandler implements the handlers that need to "invoke user
// code" (spec §4.8): map/filter/reduce receive ctx, a runtime handle, so
// they can call back into a Ruff function Value for each element.
func collectionsHandler(ctx registry.CallContext, name string, args []values.Value) (values.Value, bool, error) {
	switch name {
	case "collections.len":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.len expects 1 argument")
		}
		switch args[0].Type() {
		case values.ArrayT:
			a, _ := args[0].AsArray()
			return values.NewInt(int64(len(a.Elements))), true, nil
		case values.DictT:
			d, _ := args[0].AsDict()
			return values.NewInt(int64(d.Len())), true, nil
		case values.SetT:
			s, _ := args[0].AsSet()
			return values.NewInt(int64(s.Len())), true, nil
		default:
			return values.Value{}, true, errs.New(errs.NativeError, "collections.len expects a collection, got %s", args[0].Type())
		}
	case "collections.map":
		if len(args) != 2 {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.map expects (array, fn)")
		}
		arr, ok := args[0].AsArray()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.map expects an array, got %s", args[0].Type())
		}
		out := make([]values.Value, len(arr.Elements))
		for i, e := range arr.Elements {
			r, err := ctx.CallFunction(args[1], []values.Value{e})
			if err != nil {
				return values.Value{}, true, err
			}
			out[i] = r
		}
		return values.NewArray(out), true, nil
	case "collections.filter":
		if len(args) != 2 {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.filter expects (array, fn)")
		}
		arr, ok := args[0].AsArray()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.filter expects an array, got %s", args[0].Type())
		}
		var out []values.Value
		for _, e := range arr.Elements {
			r, err := ctx.CallFunction(args[1], []values.Value{e})
			if err != nil {
				return values.Value{}, true, err
			}
			if r.Truthy() {
				out = append(out, e)
			}
		}
		return values.NewArray(out), true, nil
	case "collections.reduce":
		if len(args) != 3 {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.reduce expects (array, fn, init)")
		}
		arr, ok := args[0].AsArray()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "collections.reduce expects an array, got %s", args[0].Type())
		}
		acc := args[2]
		for _, e := range arr.Elements {
			r, err := ctx.CallFunction(args[1], []values.Value{acc, e})
			if err != nil {
				return values.Value{}, true, err
			}
			acc = r
		}
		return acc, true, nil
	default:
		return values.Value{}, false, nil
	}
}
