//go:build amd64 && (linux || darwin)

package jit

import (
	"unsafe"

	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/opcodes"
)

// amd64Region is the nativeExec for this platform: a single mmap'd page of
// real x86-64 machine code plus the entry point, invoked via the same
// reinterpret-a-raw-pointer-as-a-Go-func trick wudi-hey's
// compiler/jit/native_call.go executeNativeUnix uses. That function's own
// comment is blunt about it ("a dangerous operation that may crash the
// program"); ours inherits the same caveat and the same recover()
// backstop, not a safer alternative -- this package's whole point is
// reproducing that technique, narrowed to a region simple enough that the
// risk is tractable.
type amd64Region struct {
	mem *execMemory
}

type nativeFn func(uintptr) int64

func (r *amd64Region) Run(locals []int64) (resumeIP int) {
	entry := r.mem.entryPoint()
	fn := *(*nativeFn)(unsafe.Pointer(&entry))
	defer func() {
		// A malformed region would corrupt the Go stack in a way recover
		// cannot reliably contain; this defer exists for the same
		// documentation reason the teacher's does, not as a real safety
		// net against arbitrary machine-code bugs.
		recover()
	}()
	return int(fn(uintptr(unsafe.Pointer(&locals[0]))))
}

func (r *amd64Region) Release() {
	if r.mem != nil {
		r.mem.free()
	}
}

// x86-64 register encodings used by this narrow code generator. Only
// caller-saved registers are used (rax, rbx, rcx, rdx, rsi) so no
// prolog/epilog save-restore is needed; rdi is reserved for the incoming
// locals-array pointer and never touched.
const (
	regAX = 0
	regCX = 1
	regDX = 2
	regBX = 3
	regSI = 6
	regDI = 7
)

type asm struct {
	buf []byte
}

func (a *asm) b(bs ...byte) { a.buf = append(a.buf, bs...) }

func (a *asm) imm32(v int32) {
	a.b(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (a *asm) imm64(v int64) {
	for i := 0; i < 8; i++ {
		a.b(byte(v >> (8 * i)))
	}
}

func (a *asm) pushReg(r byte)  { a.b(0x50 + r) }
func (a *asm) popReg(r byte)   { a.b(0x58 + r) }
func (a *asm) movRegImm64(r byte, v int64) {
	a.b(0x48, 0xB8+r)
	a.imm64(v)
}

// mov reg, [rdi+disp8]
func (a *asm) loadSlot(r byte, disp8 byte) {
	a.b(0x48, 0x8B, 0x40|(r<<3)|regDI, disp8)
}

// mov [rdi+disp8], reg
func (a *asm) storeSlot(r byte, disp8 byte) {
	a.b(0x48, 0x89, 0x40|(r<<3)|regDI, disp8)
}

func (a *asm) addRegReg(dst, src byte) { a.b(0x48, 0x01, 0xC0|(src<<3)|dst) }
func (a *asm) subRegReg(dst, src byte) { a.b(0x48, 0x29, 0xC0|(src<<3)|dst) }
func (a *asm) imulRegReg(dst, src byte) { a.b(0x48, 0x0F, 0xAF, 0xC0|(dst<<3)|src) }
func (a *asm) negReg(r byte)            { a.b(0x48, 0xF7, 0xD8|r) }
func (a *asm) cmpRegReg(a1, b1 byte)    { a.b(0x48, 0x39, 0xC0|(b1<<3)|a1) }
func (a *asm) testRegReg(r byte)        { a.b(0x48, 0x85, 0xC0|(r<<3)|r) }

// movzx rax, al (after setcc al)
func (a *asm) movzxAlToRax() { a.b(0x48, 0x0F, 0xB6, 0xC0) }

const (
	setE  = 0x94
	setNE = 0x95
	setL  = 0x9C
	setG  = 0x9F
	setLE = 0x9E
	setGE = 0x9D
)

func (a *asm) setcc(cc byte) { a.b(0x0F, cc, 0xC0) } // setcc al

// peek top-of-stack into rax without popping (JumpIfTrue/False leave the
// tested value on the stack, per spec §4.2).
func (a *asm) peekRax() { a.b(0x48, 0x8B, 0x04, 0x24) }

func (a *asm) addRspImm8(n byte) { a.b(0x48, 0x83, 0xC4, n) }

func (a *asm) jmpRel32(rel int32) { a.b(0xE9); a.imm32(rel) }

const (
	jccE  = 0x84
	jccNE = 0x85
	jccL  = 0x8C
	jccGE = 0x8D
	jccLE = 0x8E
	jccG  = 0x8F
)

func (a *asm) jccRel32(cc byte, rel int32) { a.b(0x0F, cc); a.imm32(rel) }

func (a *asm) movEaxImm32(v int32) { a.b(0xB8); a.imm32(v) }
func (a *asm) ret()                { a.b(0xC3) }

// compileNative is the entry point Compiler.TryCompile calls. It aborts
// (returns ok=false) rather than erroring for any construct outside the
// narrow supported shape, per spec §4.5's best-effort contract: only
// int64 locals, pure arithmetic/comparison, and a single distinct
// out-of-region exit target (the straightforward `while` shape: a
// JumpIfFalse/True guarding the loop condition, a body, and the trailing
// JumpBack).
func compileNative(chunk *bytecode.Chunk, loopStart, back int, intLocals []string) (nativeExec, bool) {
	if len(intLocals) > maxJITLocals {
		return nil, false
	}
	slotOf := func(nameConstIdx int32) (byte, bool) {
		c := chunk.Constants[nameConstIdx]
		if c.Kind != bytecode.ConstString {
			return 0, false
		}
		for i, n := range intLocals {
			if n == c.Str {
				return byte(i), true
			}
		}
		return 0, false
	}
	scratch := []byte{regAX, regBX, regCX, regDX, regSI}

	// Pass 1: compute each in-region instruction's native offset and the
	// single external exit target, so pass 2 can resolve every jump's
	// relative displacement without forward-reference bookkeeping beyond
	// a plain map.
	offsets := make(map[int]int, back-loopStart+1)
	exitTarget := -1
	offset := 0
	for ip := loopStart; ip <= back; ip++ {
		offsets[ip] = offset
		size, ok := instrSize(chunk, ip, slotOf)
		if !ok {
			return nil, false
		}
		offset += size

		if t, isJump := jumpTarget(chunk, ip); isJump {
			if t < loopStart || t > back {
				if exitTarget == -1 {
					exitTarget = t
				} else if exitTarget != t {
					return nil, false // more than one distinct exit: outside this narrow compiler's scope
				}
			}
		}
	}
	if exitTarget == -1 {
		exitTarget = back + 1
	}
	stubOffset := offset // exit stub immediately follows the body
	stubSize := 6         // mov eax,imm32 (5) + ret (1)

	// Pass 2: emit.
	a := &asm{}
	for ip := loopStart; ip <= back; ip++ {
		if !emitInstr(a, chunk, ip, slotOf, scratch, offsets, stubOffset, back) {
			return nil, false
		}
	}
	a.movEaxImm32(int32(exitTarget))
	a.ret()
	if len(a.buf) != stubOffset+stubSize {
		// internal inconsistency between size pass and emit pass -- abort
		// rather than ship mis-sized code.
		return nil, false
	}

	mem, err := allocExec(a.buf)
	if err != nil {
		return nil, false
	}
	return &amd64Region{mem: mem}, true
}

// jumpTarget returns the static target ip for any of our four jump
// opcodes, or ok=false for everything else.
func jumpTarget(chunk *bytecode.Chunk, ip int) (int, bool) {
	inst := chunk.Instructions[ip]
	switch inst.Op {
	case opcodes.OpJump, opcodes.OpJumpIfFalse, opcodes.OpJumpIfTrue, opcodes.OpJumpBack:
		return int(inst.A), true
	default:
		return 0, false
	}
}

func instrSize(chunk *bytecode.Chunk, ip int, slotOf func(int32) (byte, bool)) (int, bool) {
	inst := chunk.Instructions[ip]
	switch inst.Op {
	case opcodes.OpNop:
		return 0, true
	case opcodes.OpLoadConst:
		c := chunk.Constants[inst.A]
		if c.Kind != bytecode.ConstInt {
			return 0, false
		}
		return 11, true
	case opcodes.OpLoadVar:
		if _, ok := slotOf(inst.A); !ok {
			return 0, false
		}
		return 5, true
	case opcodes.OpStoreVar:
		if _, ok := slotOf(inst.A); !ok {
			return 0, false
		}
		return 5, true
	case opcodes.OpAdd, opcodes.OpSub:
		return 6, true
	case opcodes.OpMul:
		return 7, true
	case opcodes.OpNegate:
		return 5, true
	case opcodes.OpEqual, opcodes.OpNotEqual, opcodes.OpLessThan, opcodes.OpGreaterThan,
		opcodes.OpLessEqual, opcodes.OpGreaterEqual:
		return 12, true
	case opcodes.OpJump, opcodes.OpJumpBack:
		return 5, true
	case opcodes.OpJumpIfFalse, opcodes.OpJumpIfTrue:
		return 13, true
	case opcodes.OpPop:
		return 4, true
	case opcodes.OpDup:
		return 5, true
	default:
		return 0, false
	}
}

func emitInstr(a *asm, chunk *bytecode.Chunk, ip int, slotOf func(int32) (byte, bool), scratch []byte, offsets map[int]int, stubOffset, back int) bool {
	inst := chunk.Instructions[ip]
	rel := func(target int) int32 {
		var targetOffset int
		if off, ok := offsets[target]; ok {
			targetOffset = off
		} else {
			targetOffset = stubOffset
		}
		// relative displacement is measured from the address of the
		// *next* instruction, i.e. after this jump's own encoded bytes;
		// since every opcode here has a fixed size we can compute "end
		// of this instruction" as offsets[ip] + instrSize.
		size, _ := instrSize(chunk, ip, slotOf)
		return int32(targetOffset - (offsets[ip] + size))
	}

	switch inst.Op {
	case opcodes.OpNop:
		// no bytes
	case opcodes.OpLoadConst:
		c := chunk.Constants[inst.A]
		a.movRegImm64(regAX, c.Int)
		a.pushReg(regAX)
	case opcodes.OpLoadVar:
		slot, _ := slotOf(inst.A)
		a.loadSlot(regAX, slot*8)
		a.pushReg(regAX)
	case opcodes.OpStoreVar:
		slot, _ := slotOf(inst.A)
		a.popReg(regAX)
		a.storeSlot(regAX, slot*8)
	case opcodes.OpAdd:
		a.popReg(regBX)
		a.popReg(regAX)
		a.addRegReg(regAX, regBX)
		a.pushReg(regAX)
	case opcodes.OpSub:
		a.popReg(regBX)
		a.popReg(regAX)
		a.subRegReg(regAX, regBX)
		a.pushReg(regAX)
	case opcodes.OpMul:
		a.popReg(regBX)
		a.popReg(regAX)
		a.imulRegReg(regAX, regBX)
		a.pushReg(regAX)
	case opcodes.OpNegate:
		a.popReg(regAX)
		a.negReg(regAX)
		a.pushReg(regAX)
	case opcodes.OpEqual, opcodes.OpNotEqual, opcodes.OpLessThan, opcodes.OpGreaterThan,
		opcodes.OpLessEqual, opcodes.OpGreaterEqual:
		a.popReg(regBX)
		a.popReg(regAX)
		a.cmpRegReg(regAX, regBX)
		a.setcc(setCodeFor(inst.Op))
		a.movzxAlToRax()
		a.pushReg(regAX)
	case opcodes.OpJump, opcodes.OpJumpBack:
		a.jmpRel32(rel(int(inst.A)))
	case opcodes.OpJumpIfFalse:
		a.peekRax()
		a.testRegReg(regAX)
		a.jccRel32(jccE, rel(int(inst.A)))
	case opcodes.OpJumpIfTrue:
		a.peekRax()
		a.testRegReg(regAX)
		a.jccRel32(jccNE, rel(int(inst.A)))
	case opcodes.OpPop:
		a.addRspImm8(8)
	case opcodes.OpDup:
		a.peekRax()
		a.pushReg(regAX)
	default:
		return false
	}
	_ = scratch
	_ = back
	return true
}

func setCodeFor(op opcodes.Opcode) byte {
	switch op {
	case opcodes.OpEqual:
		return setE
	case opcodes.OpNotEqual:
		return setNE
	case opcodes.OpLessThan:
		return setL
	case opcodes.OpGreaterThan:
		return setG
	case opcodes.OpLessEqual:
		return setLE
	default:
		return setGE
	}
}
