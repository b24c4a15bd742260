package runtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rufflang/ruff-sub004/values"
)

// promiseState is spec §3's Created/Polling/Resolved monotonic sequence.
type promiseState int

const (
	stateCreated promiseState = iota
	statePolling
	stateResolved
)

// Promise wraps a single-use receiver plus a cached-result slot guarded by
// a polled flag, exactly as spec §4.7 specifies. Structurally grounded on
// wudi-hey's values.WaitGroup (mutex + a channel that signals completion
// once), generalized from a bare counter to a single result slot.
type Promise struct {
	ID string

	mu       sync.Mutex
	state    promiseState
	receiver chan Value
	cached   Value
}

// NewPromise spawns a worker goroutine that evaluates fn(args...) using
// runner -- a snapshot of the captured environment is runner's
// responsibility (the VM builds the call frame from fn.Env.Snapshot()
// before handing control to the goroutine, per spec §4.7 step (b)) -- and
// returns a Promise immediately, before the worker has necessarily
// finished. Errors thrown by the body are delivered as the Err case.
func NewPromise(runner Runner, fn Value, args []Value) *Promise {
	p := &Promise{ID: uuid.NewString(), state: stateCreated, receiver: make(chan Value, 1)}
	go func() {
		result, err := safeCall(runner, fn, args)
		if err != nil {
			p.receiver <- values.NewErrResult(values.NewError(err.Error()))
			return
		}
		p.receiver <- values.NewOk(result)
	}()
	return p
}

func safeCall(runner Runner, fn Value, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errPanicf("promise body panicked: %v", r)
		}
	}()
	return runner.Call(fn, args)
}

// Await acquires the polled flag; if already polled, it returns the cached
// result without blocking again (idempotent, per spec invariant 3).
// Otherwise it blocks on the receiver, caches the result, and returns it.
//
// Two goroutines calling Await concurrently on the same unresolved Promise
// both observe state != stateResolved and both block on receiver, but
// receiver only ever carries one value: the second caller blocks forever.
// Callers must serialize concurrent Await on a single Promise (e.g. await
// from one goroutine, or guard with their own lock) until this gets a
// proper subscriber-list fix.
func (p *Promise) Await() Value {
	p.mu.Lock()
	if p.state == stateResolved {
		v := p.cached
		p.mu.Unlock()
		return v
	}
	p.state = statePolling
	p.mu.Unlock()

	result := <-p.receiver

	p.mu.Lock()
	p.cached = result
	p.state = stateResolved
	p.mu.Unlock()
	return result
}
