package cpu

import (
	"fmt"
	"strings"
)

// Peeker reads memory without side effects
type Peeker interface {
	Peek(address uint16) uint8
}

// Disassemble renders the instruction at pc as "MNEMONIC operand". The
// second result is the instruction length in bytes.
func Disassemble(mem Peeker, pc uint16) (string, uint8) {
	opcode := mem.Peek(pc)
	inst, ok := Lookup(opcode)
	if !ok {
		return fmt.Sprintf("JAM $%02X", opcode), 1
	}

	lo := mem.Peek(pc + 1)
	word := uint16(mem.Peek(pc+2))<<8 | uint16(lo)

	var operand string
	switch inst.Mode {
	case Accumulator:
		operand = "A"
	case Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case ZeroPage:
		operand = fmt.Sprintf("$%02X", lo)
	case ZeroPageX:
		operand = fmt.Sprintf("$%02X,X", lo)
	case ZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case Relative:
		operand = fmt.Sprintf("$%04X", uint16(int32(pc)+2+int32(int8(lo))))
	case Absolute:
		operand = fmt.Sprintf("$%04X", word)
	case AbsoluteX:
		operand = fmt.Sprintf("$%04X,X", word)
	case AbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", word)
	case Indirect:
		operand = fmt.Sprintf("($%04X)", word)
	case IndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case IndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", lo)
	}

	if operand == "" {
		return inst.Name, inst.Bytes
	}
	return inst.Name + " " + operand, inst.Bytes
}

// TraceLine formats the instruction about to execute and the register file
// the way nestest.log does:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD CYC:7
func (cpu *CPU) TraceLine(mem Peeker) string {
	text, size := Disassemble(mem, cpu.PC)

	raw := make([]string, 0, 3)
	for i := uint16(0); i < uint16(size); i++ {
		raw = append(raw, fmt.Sprintf("%02X", mem.Peek(cpu.PC+i)))
	}

	marker := " "
	if inst, ok := Lookup(mem.Peek(cpu.PC)); ok && inst.Undocumented {
		marker = "*"
	}

	return fmt.Sprintf("%04X  %-8s %s%-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		cpu.PC, strings.Join(raw, " "), marker, text,
		cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP, cpu.cycles)
}
