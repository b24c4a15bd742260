// Package runtime implements the concurrency primitives spec §4.7 and §5
// describe: channels, promises, spawn, and generators. The goroutine-per-
// task shape is grounded on github.com/wudi/hey's
// runtime/concurrency.go (ExecuteGoroutine: spawn a real `go func(){...}`,
// recover panics into an error result, signal completion by closing a
// channel) and its values.WaitGroup (counter + closed-channel completion
// signal) -- but unlike that teacher's WaitGroup, whose Add/Done/Wait
// methods are explicit placeholder stubs, every primitive here is fully
// implemented, since spec §8 requires these to be testable end to end.
//
// This package intentionally never imports the vm package. vm executes
// Ruff function bodies and therefore must be the caller here; Runner below
// is the narrow interface this package needs back from it, satisfied
// structurally (Go interfaces need no import) by *vm.VM.
package runtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/values"
)

// Runner executes a Ruff function value with the given arguments. *vm.VM
// implements this.
type Runner interface {
	Call(fn values.Value, args []values.Value) (values.Value, error)
}

// Channel is the multi-producer/single-consumer thread-safe queue spec §4.7
// specifies. Send is buffered on an internal Go channel: it returns at once
// while the buffer has room, and once the buffer is full it blocks until a
// receiver drains a slot. Receive blocks until a value is available or
// every sender has dropped its handle, at which point it returns the
// terminal sentinel (ok=false), never an error.
type Channel struct {
	ID       string
	mu       sync.Mutex
	buf      chan values.Value
	senders  int
	closed   bool
}

// NewChannel creates a channel with the given buffer capacity. A capacity
// below 1 (including 0) is replaced by the default of 64, so a Channel is
// never unbuffered.
func NewChannel(capacity int) *Channel {
	if capacity < 1 {
		capacity = 64
	}
	return &Channel{ID: uuid.NewString(), buf: make(chan values.Value, capacity), senders: 1}
}

// AddSender registers an additional producer handle (e.g. a channel Value
// cloned by a spawned thread); it must be paired with DropSender.
func (c *Channel) AddSender() {
	c.mu.Lock()
	c.senders++
	c.mu.Unlock()
}

// DropSender releases one producer handle; once every sender has dropped,
// the channel is closed and pending/future receives drain the buffer then
// return the terminal sentinel.
func (c *Channel) DropSender() {
	c.mu.Lock()
	c.senders--
	shouldClose := c.senders <= 0 && !c.closed
	if shouldClose {
		c.closed = true
	}
	c.mu.Unlock()
	if shouldClose {
		close(c.buf)
	}
}

// Send delivers a logical clone of v, per spec §4.7 ("send(v) ... delivers
// a logical clone of v").
func (c *Channel) Send(v Value) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errs.New(errs.RuntimeError, "send on closed channel")
	}
	c.buf <- v.Clone()
	return nil
}

// Value is an alias kept local to avoid every call site spelling out
// values.Value; defined here rather than imported under a different name
// to keep this file readable against the teacher's own style of aliasing
// wide-used types near the top of a file.
type Value = values.Value

// Receive blocks until a value is available or the channel is closed with
// an empty buffer, in which case ok is false (the terminal sentinel, never
// an error, per spec §4.7).
func (c *Channel) Receive() (v Value, ok bool) {
	val, open := <-c.buf
	if !open {
		return values.NewNull(), false
	}
	return val, true
}
