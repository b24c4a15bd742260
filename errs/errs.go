// Package errs defines the closed error taxonomy shared by every tier of the
// Ruff execution core: the tree-walking interpreter, the bytecode VM, the
// JIT, and the native function registry all raise an *Error tagged with
// one of these Kinds rather than a bare error string.
package errs

import (
	"fmt"
	"strings"
)

// Kind distinguishes the taxonomy named in the error handling design:
// ParseError is a front-end concern and never constructed by this module,
// but the constant exists so callers outside the scope of this repository
// (a future lexer/parser) can slot into the same taxonomy.
type Kind int

const (
	ParseError Kind = iota
	TypeError
	RuntimeError
	NativeError
	UserError
	ICE // internal consistency error: an invariant this runtime itself violated
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case TypeError:
		return "TypeError"
	case RuntimeError:
		return "RuntimeError"
	case NativeError:
		return "NativeError"
	case UserError:
		return "UserError"
	case ICE:
		return "InternalConsistencyError"
	default:
		return "UnknownError"
	}
}

// ExitCode maps an error kind to a process exit status. The CLI driver is
// out of scope, but the mapping itself is part of the runtime's contract
// with whatever embeds it (spec: "it returns an exit code").
func (k Kind) ExitCode() int {
	switch k {
	case ParseError:
		return 1
	case TypeError, RuntimeError, NativeError, UserError:
		return 70
	case ICE:
		return 125
	default:
		return 1
	}
}

// Location is a source position, present when the chunk's debug sidecar
// has one for the instruction that raised the error.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is the single concrete error type; its Kind says which taxonomy
// member it is. Cause chains are modeled with the standard library's Unwrap convention so errors.Is/As work
// across tiers.
type Error struct {
	Kind     Kind
	Message  string
	Loc      Location
	Cause    error
	TraceMsg string // optional VM call-stack trace, set by the VM on unwind
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewAt(kind Kind, loc Location, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if !e.Loc.IsZero() {
		fmt.Fprintf(&b, " at %s", e.Loc)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	if e.TraceMsg != "" {
		b.WriteString("\n")
		b.WriteString(e.TraceMsg)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// WithTrace attaches a formatted call-stack trace, mirroring how the VM
// records frame names/lines before propagating a runtime error upward.
func (e *Error) WithTrace(trace string) *Error {
	e.TraceMsg = trace
	return e
}

func IsTypeError(err error) bool    { return kindIs(err, TypeError) }
func IsRuntimeError(err error) bool { return kindIs(err, RuntimeError) }
func IsUserError(err error) bool    { return kindIs(err, UserError) }

func kindIs(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
