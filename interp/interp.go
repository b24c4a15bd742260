// Package interp implements Ruff's tier-1 tree-walking evaluator (spec
// §4.2 "Interpreter (tier 1)"): the tier package vm uses for functions
// whose body is an AST rather than a bytecode chunk.
// The recursive-descent-over-ast.Node shape, with a *values.Environment
// scope stack threaded through every Eval call, is grounded on
// github.com/wudi/hey's tree-walking evaluation of its AST before
// compilation kicks in (compiler/vm executes compiled PHP, but the
// evaluator's control-flow shape -- switch on node kind, recurse into
// children, unwind via sentinel control-flow values for return/throw --
// follows the same pattern every tree-walker in the pack uses, including
// stackedboxes-romualdo's pkg/twi).
package interp

import (
	"github.com/rufflang/ruff-sub004/ast"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/runtime"
	"github.com/rufflang/ruff-sub004/values"
)

// Hooks is the narrow interface the interpreter needs back from whatever
// composes it with the VM tier (*vm.VM implements this), so this
// package never imports vm and stays a leaf, per the same import-cycle
// discipline values/value.go documents for Function.Env.
type Hooks interface {
	// CallFunction invokes any callable Value (user Function at either
	// tier, or NativeFunction) with already-evaluated args.
	CallFunction(fn values.Value, args []values.Value) (values.Value, error)
	WriteOutput(s string)
}

// Interp is the tier-1 evaluator. It holds no per-program state of its own;
// Eval is re-entrant across concurrently executing goroutines as long as
// each call site uses its own Environment (spawned threads and async
// workers each get a fresh/snapshotted Environment, per spec §4.7).
type Interp struct {
	Registry *registry.Registry
	Hooks    Hooks

	// Sink is non-nil only for an Interp evaluating a generator body (spec
	// §4.6): set by whatever constructs a generator-tier Function's run
	// closure (package vm's makeGeneratorValue) before calling Eval, so
	// ast.Yield has somewhere to suspend through.
	Sink *runtime.Sink
}

func New(reg *registry.Registry, hooks Hooks) *Interp {
	return &Interp{Registry: reg, Hooks: hooks}
}

// control is the sentinel unwinding mechanism for return/throw,
// mirroring the "unwind via sentinel control-flow values" note above --
// idiomatic Go favors explicit signaling over panic/recover for expected
// control flow, so every statement-executing method returns one of these.
type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlReturn
	ctrlThrow
)

type control struct {
	kind  controlKind
	value values.Value
	err   error // set alongside ctrlThrow when the thrown value wraps a Go error (rare: native call failures)
}

// Eval runs body (typically a *ast.Block, a function body) in env and
// returns its result: the Return value if one was executed, Null
// otherwise. An unhandled Throw surfaces as a Go error.
func (in *Interp) Eval(body ast.Node, env *values.Environment) (values.Value, error) {
	c := in.exec(body, env)
	switch c.kind {
	case ctrlThrow:
		if c.err != nil {
			return values.Value{}, c.err
		}
		return values.Value{}, errs.New(errs.UserError, "uncaught throw: %s", c.value.String())
	case ctrlReturn:
		return c.value, nil
	default:
		return values.NewNull(), nil
	}
}

func (in *Interp) exec(n ast.Node, env *values.Environment) control {
	switch node := n.(type) {
	case *ast.Block:
		inner := values.NewEnvironment(env)
		for _, stmt := range node.Statements {
			c := in.exec(stmt, inner)
			if c.kind != ctrlNone {
				return c
			}
		}
		return control{}

	case *ast.Let:
		v, err := in.eval(node.Value, env)
		if err != nil {
			return thrownGoErr(err)
		}
		env.Define(node.Name, v)
		return control{}

	case *ast.Assign:
		v, err := in.eval(node.Value, env)
		if err != nil {
			return thrownGoErr(err)
		}
		if err := in.assign(node.Target, v, env); err != nil {
			return thrownGoErr(err)
		}
		return control{}

	case *ast.ExprStmt:
		_, err := in.eval(node.Expr, env)
		if err != nil {
			return thrownGoErr(err)
		}
		return control{}

	case *ast.If:
		cond, err := in.eval(node.Cond, env)
		if err != nil {
			return thrownGoErr(err)
		}
		if cond.Truthy() {
			return in.exec(node.Then, env)
		}
		if node.Else != nil {
			return in.exec(node.Else, env)
		}
		return control{}

	case *ast.While:
		for {
			cond, err := in.eval(node.Cond, env)
			if err != nil {
				return thrownGoErr(err)
			}
			if !cond.Truthy() {
				return control{}
			}
			c := in.exec(node.Body, env)
			if c.kind != ctrlNone {
				return c
			}
		}

	case *ast.ForIn:
		coll, err := in.eval(node.Collection, env)
		if err != nil {
			return thrownGoErr(err)
		}
		it, err := NewIterator(coll)
		if err != nil {
			return thrownGoErr(err)
		}
		for {
			v, ok := it.Next()
			if !ok {
				return control{}
			}
			inner := values.NewEnvironment(env)
			inner.Define(node.Var, v)
			c := in.exec(node.Body, inner)
			if c.kind != ctrlNone {
				return c
			}
		}

	case *ast.Return:
		if node.Value == nil {
			return control{kind: ctrlReturn, value: values.NewNull()}
		}
		v, err := in.eval(node.Value, env)
		if err != nil {
			return thrownGoErr(err)
		}
		return control{kind: ctrlReturn, value: v}

	case *ast.Throw:
		v, err := in.eval(node.Value, env)
		if err != nil {
			return thrownGoErr(err)
		}
		return control{kind: ctrlThrow, value: v}

	case *ast.TryCatch:
		c := in.exec(node.Try, env)
		if c.kind != ctrlThrow {
			return c
		}
		thrown := c.value
		if c.err != nil {
			if ev, ok := asErrorValue(c.err); ok {
				thrown = ev
			} else {
				thrown = values.NewError(c.err.Error())
			}
		}
		catchEnv := values.NewEnvironment(env)
		catchEnv.Define(node.CatchVar, thrown)
		return in.exec(node.Catch, catchEnv)

	case *ast.FuncDecl:
		// Named declarations do not capture the enclosing environment
		// (spec §4.6 asymmetry): Env is left nil.
		fn := values.NewFunction(&values.Function{
			Name: node.Name, Params: node.Params, IsVariadic: node.IsVariadic,
			IsAsync: node.IsAsync, IsGen: node.IsGen, Body: node.Body,
		})
		env.Define(node.Name, fn)
		return control{}

	case *ast.SpawnStmt:
		// spec §4.7/§5: a fresh, independent runtime instance (its own
		// Interp, sharing only the immutable Registry) evaluating a
		// snapshot of the captured environment on its own OS thread. No
		// return value crosses back; the spawned body's only channel to
		// the parent is whatever Channel values it was given.
		body, snapshot := node.Body, env.Snapshot()
		reg := in.Registry
		hooks := in.Hooks
		runtime.Spawn(func() {
			child := New(reg, hooks)
			child.Eval(body, snapshot)
		})
		return control{}

	default:
		// Expression used as a statement in a context that only expects
		// statements (defensive: the out-of-scope compiler front end
		// would never emit this, but Eval must not panic on it).
		_, err := in.eval(n, env)
		if err != nil {
			return thrownGoErr(err)
		}
		return control{}
	}
}

func thrownGoErr(err error) control {
	return control{kind: ctrlThrow, value: values.NewError(err.Error()), err: err}
}

func asErrorValue(err error) (values.Value, bool) {
	if ev, ok := err.(*errs.Error); ok {
		return values.NewError(ev.Message), true
	}
	return values.Value{}, false
}

func (in *Interp) assign(target ast.Node, v values.Value, env *values.Environment) error {
	switch t := target.(type) {
	case *ast.Ident:
		env.Assign(t.Name, v)
		return nil
	case *ast.IndexExpr:
		coll, err := in.eval(t.Collection, env)
		if err != nil {
			return err
		}
		idx, err := in.eval(t.Index, env)
		if err != nil {
			return err
		}
		return indexSet(coll, idx, v)
	case *ast.FieldExpr:
		recv, err := in.eval(t.Receiver, env)
		if err != nil {
			return err
		}
		st, ok := recv.AsStruct()
		if !ok {
			return errs.New(errs.TypeError, "cannot set field %q on %s", t.Field, recv.Type())
		}
		if !st.Set(t.Field, v) {
			return errs.New(errs.RuntimeError, "struct %s has no field %q", st.Name, t.Field)
		}
		return nil
	default:
		return errs.New(errs.RuntimeError, "invalid assignment target")
	}
}

func indexSet(coll, idx, v values.Value) error {
	switch coll.Type() {
	case values.ArrayT:
		arr, _ := coll.AsArray()
		i, ok := idx.AsInt()
		if !ok {
			return errs.New(errs.TypeError, "array index must be int, got %s", idx.Type())
		}
		if i < 0 || int(i) >= len(arr.Elements) {
			return errs.New(errs.RuntimeError, "array index %d out of range", i)
		}
		arr.Elements[i] = v
		return nil
	case values.DictT:
		d, _ := coll.AsDict()
		k, ok := idx.AsString()
		if !ok {
			return errs.New(errs.TypeError, "dict key must be string, got %s", idx.Type())
		}
		d.Set(k, v)
		return nil
	default:
		return errs.New(errs.TypeError, "cannot index-assign into %s", coll.Type())
	}
}

func (in *Interp) eval(n ast.Node, env *values.Environment) (values.Value, error) {
	switch node := n.(type) {
	case *ast.IntLit:
		return values.NewInt(node.Value), nil
	case *ast.FloatLit:
		return values.NewFloat(node.Value), nil
	case *ast.StringLit:
		return values.NewString(node.Value), nil
	case *ast.BoolLit:
		return values.NewBool(node.Value), nil
	case *ast.NullLit:
		return values.NewNull(), nil

	case *ast.Ident:
		v, ok := env.Get(node.Name)
		if !ok {
			return values.Value{}, errs.New(errs.RuntimeError, "undefined variable %q", node.Name)
		}
		return v, nil

	case *ast.BinOp:
		return in.evalBinOp(node, env)

	case *ast.UnaryOp:
		v, err := in.eval(node.Operand, env)
		if err != nil {
			return values.Value{}, err
		}
		switch node.Op {
		case "-":
			return values.Negate(v)
		case "not":
			return values.Not(v), nil
		default:
			return values.Value{}, errs.New(errs.RuntimeError, "unknown unary operator %q", node.Op)
		}

	case *ast.Call:
		return in.evalCall(node, env)

	case *ast.FuncExpr:
		// Anonymous functions capture the current environment *by share*
		// (spec §4.6): the same *Environment pointer, not a copy.
		return values.NewFunction(&values.Function{
			Params: node.Params, IsVariadic: node.IsVariadic, IsAsync: node.IsAsync,
			IsGen: node.IsGen, Body: node.Body, Env: env,
		}), nil

	case *ast.IndexExpr:
		coll, err := in.eval(node.Collection, env)
		if err != nil {
			return values.Value{}, err
		}
		idx, err := in.eval(node.Index, env)
		if err != nil {
			return values.Value{}, err
		}
		return indexGet(coll, idx)

	case *ast.FieldExpr:
		recv, err := in.eval(node.Receiver, env)
		if err != nil {
			return values.Value{}, err
		}
		st, ok := recv.AsStruct()
		if !ok {
			return values.Value{}, errs.New(errs.TypeError, "cannot read field %q on %s", node.Field, recv.Type())
		}
		v, ok := st.Get(node.Field)
		if !ok {
			return values.Value{}, errs.New(errs.RuntimeError, "struct %s has no field %q", st.Name, node.Field)
		}
		return v, nil

	case *ast.ArrayLit:
		var elems []values.Value
		for i, e := range node.Elements {
			v, err := in.eval(e, env)
			if err != nil {
				return values.Value{}, err
			}
			if i < len(node.Spreads) && node.Spreads[i] {
				arr, ok := v.AsArray()
				if !ok {
					return values.Value{}, errs.New(errs.TypeError, "cannot spread non-array %s", v.Type())
				}
				elems = append(elems, arr.Elements...)
				continue
			}
			elems = append(elems, v)
		}
		return values.NewArray(elems), nil

	case *ast.DictLit:
		d := values.NewDict()
		for _, e := range node.Entries {
			k, err := in.eval(e.Key, env)
			if err != nil {
				return values.Value{}, err
			}
			ks, ok := k.AsString()
			if !ok {
				return values.Value{}, errs.New(errs.TypeError, "dict key must be string, got %s", k.Type())
			}
			v, err := in.eval(e.Value, env)
			if err != nil {
				return values.Value{}, err
			}
			d.Set(ks, v)
		}
		return values.NewDictValue(d), nil

	case *ast.StructLit:
		vals := make([]values.Value, len(node.Values))
		for i, ve := range node.Values {
			v, err := in.eval(ve, env)
			if err != nil {
				return values.Value{}, err
			}
			vals[i] = v
		}
		return values.NewStruct(node.TypeName, node.Fields, vals), nil

	case *ast.Await:
		v, err := in.eval(node.Operand, env)
		if err != nil {
			return values.Value{}, err
		}
		return runtime.Await(v), nil

	case *ast.Yield:
		if in.Sink == nil {
			return values.Value{}, errs.New(errs.RuntimeError, "yield outside a generator body")
		}
		v, err := in.eval(node.Value, env)
		if err != nil {
			return values.Value{}, err
		}
		return in.Sink.Yield(v), nil

	default:
		return values.Value{}, errs.New(errs.RuntimeError, "cannot evaluate node %T", n)
	}
}

func (in *Interp) evalBinOp(node *ast.BinOp, env *values.Environment) (values.Value, error) {
	if node.Op == "and" {
		l, err := in.eval(node.Left, env)
		if err != nil {
			return values.Value{}, err
		}
		if !l.Truthy() {
			return l, nil
		}
		return in.eval(node.Right, env)
	}
	if node.Op == "or" {
		l, err := in.eval(node.Left, env)
		if err != nil {
			return values.Value{}, err
		}
		if l.Truthy() {
			return l, nil
		}
		return in.eval(node.Right, env)
	}

	l, err := in.eval(node.Left, env)
	if err != nil {
		return values.Value{}, err
	}
	r, err := in.eval(node.Right, env)
	if err != nil {
		return values.Value{}, err
	}
	switch node.Op {
	case "+":
		return values.Add(l, r)
	case "-":
		return values.Sub(l, r)
	case "*":
		return values.Mul(l, r)
	case "/":
		return values.Div(l, r)
	case "%":
		return values.Mod(l, r)
	case "==":
		return values.NewBool(values.Equal(l, r)), nil
	case "!=":
		return values.NewBool(!values.Equal(l, r)), nil
	case "<", ">", "<=", ">=":
		cmp, err := values.Compare(l, r)
		if err != nil {
			return values.Value{}, err
		}
		switch node.Op {
		case "<":
			return values.NewBool(cmp < 0), nil
		case ">":
			return values.NewBool(cmp > 0), nil
		case "<=":
			return values.NewBool(cmp <= 0), nil
		default:
			return values.NewBool(cmp >= 0), nil
		}
	default:
		return values.Value{}, errs.New(errs.RuntimeError, "unknown binary operator %q", node.Op)
	}
}

func (in *Interp) evalCall(node *ast.Call, env *values.Environment) (values.Value, error) {
	callee, err := in.eval(node.Callee, env)
	if err != nil {
		return values.Value{}, err
	}
	args := make([]values.Value, 0, len(node.Args))
	for i, a := range node.Args {
		v, err := in.eval(a, env)
		if err != nil {
			return values.Value{}, err
		}
		if node.Spread && i == len(node.Args)-1 {
			arr, ok := v.AsArray()
			if !ok {
				return values.Value{}, errs.New(errs.TypeError, "cannot spread non-array %s", v.Type())
			}
			args = append(args, arr.Elements...)
			continue
		}
		args = append(args, v)
	}

	switch callee.Type() {
	case values.NativeT:
		native, _ := callee.AsNative()
		return in.callNative(native.Name, args)
	case values.FunctionT:
		return in.Hooks.CallFunction(callee, args)
	default:
		return values.Value{}, errs.New(errs.TypeError, "cannot call value of type %s", callee.Type())
	}
}

func (in *Interp) callNative(name string, args []values.Value) (values.Value, error) {
	result, err := in.Registry.Dispatch(nativeCtx{in}, name, args)
	if err != nil {
		if e, ok := err.(*errs.Error); ok && e.Kind == errs.NativeError {
			return values.NewError(e.Message), nil
		}
		return values.Value{}, err
	}
	return result, nil
}

// nativeCtx adapts Interp to registry.CallContext.
type nativeCtx struct{ in *Interp }

func (c nativeCtx) CallFunction(fn values.Value, args []values.Value) (values.Value, error) {
	return c.in.Hooks.CallFunction(fn, args)
}

func (c nativeCtx) WriteOutput(s string) { c.in.Hooks.WriteOutput(s) }

func indexGet(coll, idx values.Value) (values.Value, error) {
	switch coll.Type() {
	case values.ArrayT:
		arr, _ := coll.AsArray()
		i, ok := idx.AsInt()
		if !ok {
			return values.Value{}, errs.New(errs.TypeError, "array index must be int, got %s", idx.Type())
		}
		if i < 0 || int(i) >= len(arr.Elements) {
			return values.Value{}, errs.New(errs.RuntimeError, "array index %d out of range", i)
		}
		return arr.Elements[i], nil
	case values.DictT:
		d, _ := coll.AsDict()
		k, ok := idx.AsString()
		if !ok {
			return values.Value{}, errs.New(errs.TypeError, "dict key must be string, got %s", idx.Type())
		}
		v, ok := d.Get(k)
		if !ok {
			return values.Value{}, errs.New(errs.RuntimeError, "missing key %q", k)
		}
		return v, nil
	default:
		return values.Value{}, errs.New(errs.TypeError, "cannot index into %s", coll.Type())
	}
}
