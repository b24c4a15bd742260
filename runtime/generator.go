package runtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rufflang/ruff-sub004/values"
)

// Sink is the suspension point a generator body yields through: the VM's
// OpYield handling and the interpreter's ast.Yield call Yield on the *Sink
// their frame or Interp was given. It is a concrete type, so vm and interp
// import runtime to use it, while runtime need not import vm -- the generator's own
// goroutine stack plays the role spec §4.6/§4.7 assigns to "saved pc and
// environment": suspending a goroutine on a channel receive preserves its
// entire Go call stack, which is a strictly more complete continuation
// than manually serializing an interpreter's locals/ip would be.
//
// This replaces the teacher's runtime/generator.go, whose own
// "ARCHITECTURE NOTE" documents that its Generator never actually resumes
// real VM execution (simulateGeneratorExecution is a counting stub); the
// goroutine-per-generator technique here is a complete, working
// replacement built in the idiom Go itself recommends for coroutines.
type Sink struct {
	yieldCh  chan yieldMsg
	resumeCh chan Value
}

type yieldMsg struct {
	value Value
	done  bool
	err   error
}

// Yield is called by the VM's OpYield handling from inside the generator's
// goroutine. It blocks until Advance sends a resume signal, and returns
// whatever value Advance sent (reserved for a future `generator.send`;
// currently always Null).
func (s *Sink) Yield(v Value) Value {
	s.yieldCh <- yieldMsg{value: v}
	return <-s.resumeCh
}

// GeneratorState is spec §3 invariant 4: Suspended (pc >= 0, saved env) or
// Exhausted.
type GeneratorState int

const (
	Suspended GeneratorState = iota
	Exhausted
)

// Generator is the suspended-coroutine Value payload. Body is invoked
// lazily: the goroutine isn't started until the first Advance, matching
// "Advancing a generator resumes execution until the next yield" (the
// generator hasn't begun running at all before the first advance).
type Generator struct {
	ID string

	mu      sync.Mutex
	state   GeneratorState
	started bool
	sink    *Sink
	run     func(*Sink) (Value, error) // closes over fn/args/runner; set by vm's makeGeneratorValue
}

func NewGenerator(run func(*Sink) (Value, error)) *Generator {
	return &Generator{ID: uuid.NewString(), state: Suspended, run: run}
}

// Advance resumes execution until the next yield or completion. Once
// Exhausted, every subsequent Advance returns the terminal sentinel
// (ok=false) without re-running the body, per spec invariant 4.
func (g *Generator) Advance() (value Value, ok bool, err error) {
	g.mu.Lock()
	if g.state == Exhausted {
		g.mu.Unlock()
		return values.NewNull(), false, nil
	}

	if !g.started {
		g.started = true
		g.sink = &Sink{yieldCh: make(chan yieldMsg), resumeCh: make(chan Value)}
		sink := g.sink
		go func() {
			defer func() {
				if r := recover(); r != nil {
					sink.yieldCh <- yieldMsg{done: true, err: errPanicf("generator body panicked: %v", r)}
				}
			}()
			result, runErr := g.run(sink)
			sink.yieldCh <- yieldMsg{value: result, done: true, err: runErr}
		}()
	} else {
		g.sink.resumeCh <- values.NewNull()
	}
	sink := g.sink
	g.mu.Unlock()

	msg := <-sink.yieldCh
	if msg.done {
		g.mu.Lock()
		g.state = Exhausted
		g.mu.Unlock()
		if msg.err != nil {
			return values.NewNull(), false, msg.err
		}
		return values.NewNull(), false, nil
	}
	return msg.value, true, nil
}

func (g *Generator) IsExhausted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == Exhausted
}
