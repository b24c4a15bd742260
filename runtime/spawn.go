package runtime

// Spawn implements spec §4.7's `spawn`: "creates an OS thread carrying a
// freshly initialized runtime instance that evaluates the given block. No
// return value; communication is exclusively via channels. Spawn is
// non-blocking for the parent." task is the caller's closure over its own
// tier (interp.Interp or the tiering engine), a fresh Environment snapshot,
// and the block to run -- this package stays a leaf (no ast/interp/vm
// import) by accepting a prebuilt thunk, the same inversion
// runtime.Runner uses for Promise/Generator bodies.
//
// A panicking spawned body cannot surface an error anywhere (spec: "no
// return value"); it is recovered and dropped rather than crashing the
// whole process, matching the teacher's ExecuteGoroutine panic-recovery
// discipline even though here there is no result channel to deliver it on.
func Spawn(task func()) {
	go func() {
		defer func() {
			recover()
		}()
		task()
	}()
}

// Await implements spec §4.7's `await`: a no-op on a non-Promise value: a
// Promise unwraps to its cached/received Result (Ok or Err case).
func Await(v Value) Value {
	payload, ok := v.PromisePayload()
	if !ok {
		return v
	}
	p, ok := payload.(*Promise)
	if !ok {
		return v
	}
	return p.Await()
}
