//go:build amd64 && (linux || darwin)

package jit

import (
	"fmt"
	"syscall"
	"unsafe"
)

// execMemory is an mmap'd PROT_EXEC page holding one compiled region's
// machine code, adapted from wudi-hey's compiler/jit/memory.go
// ExecutableMemory (same mmap/munmap syscalls, same PROT_READ|WRITE|EXEC
// flags); narrowed to the one allocate-write-once-then-run lifecycle this
// package needs.
type execMemory struct {
	data []byte
	ptr  uintptr
}

func allocExec(code []byte) (*execMemory, error) {
	pageSize := syscall.Getpagesize()
	size := ((len(code) + pageSize - 1) / pageSize) * pageSize

	ptr, _, errno := syscall.Syscall6(
		syscall.SYS_MMAP, 0, uintptr(size),
		syscall.PROT_READ|syscall.PROT_WRITE|syscall.PROT_EXEC,
		syscall.MAP_PRIVATE|syscall.MAP_ANONYMOUS, 0, 0,
	)
	if ptr == ^uintptr(0) || errno != 0 {
		return nil, fmt.Errorf("jit: mmap failed: %v", errno)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
	copy(data, code)
	return &execMemory{data: data, ptr: ptr}, nil
}

func (m *execMemory) entryPoint() uintptr { return m.ptr }

func (m *execMemory) free() {
	if m.ptr == 0 {
		return
	}
	syscall.Syscall(syscall.SYS_MUNMAP, m.ptr, uintptr(len(m.data)), 0)
	m.ptr = 0
	m.data = nil
}
