package stdlib

import (
	"strconv"
	"strings"

	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/values"
)

func stringHandler(ctx registry.CallContext, name string, args []values.Value) (values.Value, bool, error) {
	switch name {
	case "string.fromInt":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "string.fromInt expects 1 argument, got %d", len(args))
		}
		i, ok := args[0].AsInt()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "string.fromInt expects an int, got %s", args[0].Type())
		}
		return values.NewString(strconv.FormatInt(i, 10)), true, nil
	case "string.len":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "string.len expects 1 argument, got %d", len(args))
		}
		s, ok := args[0].AsString()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "string.len expects a string, got %s", args[0].Type())
		}
		return values.NewInt(int64(len(s))), true, nil
	case "string.upper":
		s, ok := args[0].AsString()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "string.upper expects a string, got %s", args[0].Type())
		}
		return values.NewString(strings.ToUpper(s)), true, nil
	case "string.lower":
		s, ok := args[0].AsString()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "string.lower expects a string, got %s", args[0].Type())
		}
		return values.NewString(strings.ToLower(s)), true, nil
	case "string.split":
		if len(args) != 2 {
			return values.Value{}, true, errs.New(errs.NativeError, "string.split expects 2 arguments, got %d", len(args))
		}
		s, ok1 := args[0].AsString()
		sep, ok2 := args[1].AsString()
		if !ok1 || !ok2 {
			return values.Value{}, true, errs.New(errs.NativeError, "string.split expects (string, string)")
		}
		parts := strings.Split(s, sep)
		elems := make([]values.Value, len(parts))
		for i, p := range parts {
			elems[i] = values.NewString(p)
		}
		return values.NewArray(elems), true, nil
	default:
		return values.Value{}, false, nil
	}
}
