package stdlib

import (
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/runtime"
	"github.com/rufflang/ruff-sub004/values"
)

// concurrencyHandler exposes runtime.AwaitAll (the errgroup-backed
// promise fan-in helper, a supplement spec §8's "promise fan-in" scenario
// names no API for) as a native function, the same way every other
// concurrency primitive (spawn, channel, promise) is reached from Ruff
// code through an opcode or CallNative rather than a bare Go call.
func concurrencyHandler(ctx registry.CallContext, name string, args []values.Value) (values.Value, bool, error) {
	switch name {
	case "concurrency.awaitAll":
		if len(args) != 1 {
			return values.Value{}, true, errs.New(errs.NativeError, "concurrency.awaitAll expects 1 argument, got %d", len(args))
		}
		arr, ok := args[0].AsArray()
		if !ok {
			return values.Value{}, true, errs.New(errs.NativeError, "concurrency.awaitAll expects an array of promises, got %s", args[0].Type())
		}
		results, err := runtime.AwaitAll(arr.Elements)
		if err != nil {
			return values.Value{}, true, errs.Wrap(errs.NativeError, err, "concurrency.awaitAll")
		}
		return values.NewArray(results), true, nil
	default:
		return values.Value{}, false, nil
	}
}
