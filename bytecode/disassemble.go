package bytecode

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Disassemble renders a Chunk the way
// stackedboxes-romualdo/pkg/bytecode/disassembler.go does (offset,
// source-location, mnemonic, operands), extended with fatih/color
// highlighting for opcode mnemonics when useColor is set. cmd/ruff's
// --disassemble flag is its caller; the VM has no trace mode.
func Disassemble(c *Chunk, useColor bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", c.Name)
	for ip := range c.Instructions {
		b.WriteString(DisassembleInstruction(c, ip, useColor))
		b.WriteString("\n")
	}
	return b.String()
}

func DisassembleInstruction(c *Chunk, ip int, useColor bool) string {
	inst := c.Instructions[ip]
	loc := c.Debug.At(ip)
	mnemonic := inst.Op.String()
	if useColor {
		mnemonic = color.New(color.FgCyan).Sprint(mnemonic)
	}
	locStr := "     "
	if !loc.IsZero() {
		locStr = fmt.Sprintf("%4d", loc.Line)
	}
	return fmt.Sprintf("%04d %s %-16s %6d %6d %6d", ip, locStr, mnemonic, inst.A, inst.B, inst.C)
}
