package cpu

// AddressingMode selects how an instruction finds its operand
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// operandBytes is the operand length for each mode
var operandBytes = [...]uint8{
	Implied:         0,
	Accumulator:     0,
	Immediate:       1,
	ZeroPage:        1,
	ZeroPageX:       1,
	ZeroPageY:       1,
	Relative:        1,
	Absolute:        2,
	AbsoluteX:       2,
	AbsoluteY:       2,
	Indirect:        2,
	IndexedIndirect: 1,
	IndirectIndexed: 1,
}

// Instruction represents a 6502 instruction
type Instruction struct {
	Name   string
	Opcode uint8
	Bytes  uint8
	Cycles uint8
	Mode   AddressingMode
	// PagePenalty adds a cycle when indexing crosses a page
	PagePenalty bool
	// Undocumented opcodes are marked in traces
	Undocumented bool
}

// instructions is indexed by opcode. JAM opcodes have zero cycles and no name.
var instructions [256]Instruction

// Lookup returns the table entry for opcode and whether it is executable
func Lookup(opcode uint8) (Instruction, bool) {
	inst := instructions[opcode]
	return inst, inst.Cycles != 0
}

func def(opcode uint8, name string, mode AddressingMode, cycles uint8) *Instruction {
	instructions[opcode] = Instruction{
		Name:   name,
		Opcode: opcode,
		Bytes:  1 + operandBytes[mode],
		Cycles: cycles,
		Mode:   mode,
	}
	return &instructions[opcode]
}

// defP defines a read instruction that pays for page crossings
func defP(opcode uint8, name string, mode AddressingMode, cycles uint8) *Instruction {
	inst := def(opcode, name, mode, cycles)
	inst.PagePenalty = true
	return inst
}

// illegal defines an undocumented opcode
func illegal(opcode uint8, name string, mode AddressingMode, cycles uint8, penalty bool) {
	inst := def(opcode, name, mode, cycles)
	inst.PagePenalty = penalty
	inst.Undocumented = true
}

func init() {
	// Load/Store
	def(0xA9, "LDA", Immediate, 2)
	def(0xA5, "LDA", ZeroPage, 3)
	def(0xB5, "LDA", ZeroPageX, 4)
	def(0xAD, "LDA", Absolute, 4)
	defP(0xBD, "LDA", AbsoluteX, 4)
	defP(0xB9, "LDA", AbsoluteY, 4)
	def(0xA1, "LDA", IndexedIndirect, 6)
	defP(0xB1, "LDA", IndirectIndexed, 5)

	def(0xA2, "LDX", Immediate, 2)
	def(0xA6, "LDX", ZeroPage, 3)
	def(0xB6, "LDX", ZeroPageY, 4)
	def(0xAE, "LDX", Absolute, 4)
	defP(0xBE, "LDX", AbsoluteY, 4)

	def(0xA0, "LDY", Immediate, 2)
	def(0xA4, "LDY", ZeroPage, 3)
	def(0xB4, "LDY", ZeroPageX, 4)
	def(0xAC, "LDY", Absolute, 4)
	defP(0xBC, "LDY", AbsoluteX, 4)

	def(0x85, "STA", ZeroPage, 3)
	def(0x95, "STA", ZeroPageX, 4)
	def(0x8D, "STA", Absolute, 4)
	def(0x9D, "STA", AbsoluteX, 5)
	def(0x99, "STA", AbsoluteY, 5)
	def(0x81, "STA", IndexedIndirect, 6)
	def(0x91, "STA", IndirectIndexed, 6)

	def(0x86, "STX", ZeroPage, 3)
	def(0x96, "STX", ZeroPageY, 4)
	def(0x8E, "STX", Absolute, 4)

	def(0x84, "STY", ZeroPage, 3)
	def(0x94, "STY", ZeroPageX, 4)
	def(0x8C, "STY", Absolute, 4)

	// Arithmetic, logic and compare share the same eight-mode layout
	for _, group := range []struct {
		name string
		base uint8
	}{
		{"ORA", 0x00}, {"AND", 0x20}, {"EOR", 0x40}, {"ADC", 0x60},
		{"CMP", 0xC0}, {"SBC", 0xE0},
	} {
		b := group.base
		def(b|0x09, group.name, Immediate, 2)
		def(b|0x05, group.name, ZeroPage, 3)
		def(b|0x15, group.name, ZeroPageX, 4)
		def(b|0x0D, group.name, Absolute, 4)
		defP(b|0x1D, group.name, AbsoluteX, 4)
		defP(b|0x19, group.name, AbsoluteY, 4)
		def(b|0x01, group.name, IndexedIndirect, 6)
		defP(b|0x11, group.name, IndirectIndexed, 5)
	}

	def(0xE0, "CPX", Immediate, 2)
	def(0xE4, "CPX", ZeroPage, 3)
	def(0xEC, "CPX", Absolute, 4)
	def(0xC0, "CPY", Immediate, 2)
	def(0xC4, "CPY", ZeroPage, 3)
	def(0xCC, "CPY", Absolute, 4)

	def(0x24, "BIT", ZeroPage, 3)
	def(0x2C, "BIT", Absolute, 4)

	// Read-modify-write
	for _, group := range []struct {
		name string
		base uint8
	}{
		{"ASL", 0x00}, {"ROL", 0x20}, {"LSR", 0x40}, {"ROR", 0x60},
		{"DEC", 0xC0}, {"INC", 0xE0},
	} {
		b := group.base
		def(b|0x06, group.name, ZeroPage, 5)
		def(b|0x16, group.name, ZeroPageX, 6)
		def(b|0x0E, group.name, Absolute, 6)
		def(b|0x1E, group.name, AbsoluteX, 7)
	}
	def(0x0A, "ASL", Accumulator, 2)
	def(0x2A, "ROL", Accumulator, 2)
	def(0x4A, "LSR", Accumulator, 2)
	def(0x6A, "ROR", Accumulator, 2)

	// Register
	def(0xE8, "INX", Implied, 2)
	def(0xCA, "DEX", Implied, 2)
	def(0xC8, "INY", Implied, 2)
	def(0x88, "DEY", Implied, 2)
	def(0xAA, "TAX", Implied, 2)
	def(0x8A, "TXA", Implied, 2)
	def(0xA8, "TAY", Implied, 2)
	def(0x98, "TYA", Implied, 2)
	def(0xBA, "TSX", Implied, 2)
	def(0x9A, "TXS", Implied, 2)

	// Stack
	def(0x48, "PHA", Implied, 3)
	def(0x68, "PLA", Implied, 4)
	def(0x08, "PHP", Implied, 3)
	def(0x28, "PLP", Implied, 4)

	// Flags
	def(0x18, "CLC", Implied, 2)
	def(0x38, "SEC", Implied, 2)
	def(0x58, "CLI", Implied, 2)
	def(0x78, "SEI", Implied, 2)
	def(0xB8, "CLV", Implied, 2)
	def(0xD8, "CLD", Implied, 2)
	def(0xF8, "SED", Implied, 2)

	// Control flow
	def(0x4C, "JMP", Absolute, 3)
	def(0x6C, "JMP", Indirect, 5)
	def(0x20, "JSR", Absolute, 6)
	def(0x60, "RTS", Implied, 6)
	def(0x40, "RTI", Implied, 6)
	def(0x00, "BRK", Implied, 7)
	def(0xEA, "NOP", Implied, 2)

	def(0x10, "BPL", Relative, 2)
	def(0x30, "BMI", Relative, 2)
	def(0x50, "BVC", Relative, 2)
	def(0x70, "BVS", Relative, 2)
	def(0x90, "BCC", Relative, 2)
	def(0xB0, "BCS", Relative, 2)
	def(0xD0, "BNE", Relative, 2)
	def(0xF0, "BEQ", Relative, 2)

	// Undocumented NOPs
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		illegal(op, "NOP", Implied, 2, false)
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		illegal(op, "NOP", Immediate, 2, false)
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		illegal(op, "NOP", ZeroPage, 3, false)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		illegal(op, "NOP", ZeroPageX, 4, false)
	}
	illegal(0x0C, "NOP", Absolute, 4, false)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		illegal(op, "NOP", AbsoluteX, 4, true)
	}

	// Undocumented read-modify-write combinations
	for _, group := range []struct {
		name string
		base uint8
	}{
		{"SLO", 0x00}, {"RLA", 0x20}, {"SRE", 0x40}, {"RRA", 0x60},
		{"DCP", 0xC0}, {"ISC", 0xE0},
	} {
		b := group.base
		illegal(b|0x07, group.name, ZeroPage, 5, false)
		illegal(b|0x17, group.name, ZeroPageX, 6, false)
		illegal(b|0x0F, group.name, Absolute, 6, false)
		illegal(b|0x1F, group.name, AbsoluteX, 7, false)
		illegal(b|0x1B, group.name, AbsoluteY, 7, false)
		illegal(b|0x03, group.name, IndexedIndirect, 8, false)
		illegal(b|0x13, group.name, IndirectIndexed, 8, false)
	}

	illegal(0xA7, "LAX", ZeroPage, 3, false)
	illegal(0xB7, "LAX", ZeroPageY, 4, false)
	illegal(0xAF, "LAX", Absolute, 4, false)
	illegal(0xBF, "LAX", AbsoluteY, 4, true)
	illegal(0xA3, "LAX", IndexedIndirect, 6, false)
	illegal(0xB3, "LAX", IndirectIndexed, 5, true)

	illegal(0x87, "SAX", ZeroPage, 3, false)
	illegal(0x97, "SAX", ZeroPageY, 4, false)
	illegal(0x8F, "SAX", Absolute, 4, false)
	illegal(0x83, "SAX", IndexedIndirect, 6, false)

	illegal(0xEB, "SBC", Immediate, 2, false)
	illegal(0x0B, "ANC", Immediate, 2, false)
	illegal(0x2B, "ANC", Immediate, 2, false)
	illegal(0x4B, "ALR", Immediate, 2, false)
	illegal(0x6B, "ARR", Immediate, 2, false)
	illegal(0x8B, "XAA", Immediate, 2, false)
	illegal(0xAB, "LXA", Immediate, 2, false)
	illegal(0xCB, "AXS", Immediate, 2, false)

	illegal(0x93, "AHX", IndirectIndexed, 6, false)
	illegal(0x9F, "AHX", AbsoluteY, 5, false)
	illegal(0x9E, "SHX", AbsoluteY, 5, false)
	illegal(0x9C, "SHY", AbsoluteX, 5, false)
	illegal(0x9B, "TAS", AbsoluteY, 5, false)
	illegal(0xBB, "LAS", AbsoluteY, 4, true)

	// 0x02, 0x12, ... 0xF2 halt the processor and stay undefined
}

// execute performs opcode's effect on the resolved address and returns any
// extra cycles beyond the table cost.
func (cpu *CPU) execute(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	// Load/Store
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1: // LDA
		cpu.A = cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE: // LDX
		cpu.X = cpu.memory.Read(address)
		cpu.setZN(cpu.X)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC: // LDY
		cpu.Y = cpu.memory.Read(address)
		cpu.setZN(cpu.Y)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91: // STA
		cpu.memory.Write(address, cpu.A)
	case 0x86, 0x96, 0x8E: // STX
		cpu.memory.Write(address, cpu.X)
	case 0x84, 0x94, 0x8C: // STY
		cpu.memory.Write(address, cpu.Y)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71: // ADC
		cpu.adc(cpu.memory.Read(address))
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1: // SBC
		cpu.adc(^cpu.memory.Read(address))

	// Logical
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31: // AND
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11: // ORA
		cpu.A |= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51: // EOR
		cpu.A ^= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0x24, 0x2C: // BIT
		value := cpu.memory.Read(address)
		cpu.N = value&nFlagMask != 0
		cpu.V = value&vFlagMask != 0
		cpu.Z = cpu.A&value == 0

	// Shifts and rotates
	case 0x0A:
		cpu.A = cpu.asl(cpu.A)
	case 0x06, 0x16, 0x0E, 0x1E:
		cpu.modify(address, cpu.asl)
	case 0x4A:
		cpu.A = cpu.lsr(cpu.A)
	case 0x46, 0x56, 0x4E, 0x5E:
		cpu.modify(address, cpu.lsr)
	case 0x2A:
		cpu.A = cpu.rol(cpu.A)
	case 0x26, 0x36, 0x2E, 0x3E:
		cpu.modify(address, cpu.rol)
	case 0x6A:
		cpu.A = cpu.ror(cpu.A)
	case 0x66, 0x76, 0x6E, 0x7E:
		cpu.modify(address, cpu.ror)

	// Comparison
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1: // CMP
		cpu.compare(cpu.A, cpu.memory.Read(address))
	case 0xE0, 0xE4, 0xEC: // CPX
		cpu.compare(cpu.X, cpu.memory.Read(address))
	case 0xC0, 0xC4, 0xCC: // CPY
		cpu.compare(cpu.Y, cpu.memory.Read(address))

	// Increment/Decrement
	case 0xE6, 0xF6, 0xEE, 0xFE: // INC
		cpu.modify(address, cpu.inc)
	case 0xC6, 0xD6, 0xCE, 0xDE: // DEC
		cpu.modify(address, cpu.dec)
	case 0xE8: // INX
		cpu.X = cpu.inc(cpu.X)
	case 0xCA: // DEX
		cpu.X = cpu.dec(cpu.X)
	case 0xC8: // INY
		cpu.Y = cpu.inc(cpu.Y)
	case 0x88: // DEY
		cpu.Y = cpu.dec(cpu.Y)

	// Transfers
	case 0xAA: // TAX
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case 0x8A: // TXA
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case 0xA8: // TAY
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case 0x98: // TYA
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case 0xBA: // TSX
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case 0x9A: // TXS
		cpu.SP = cpu.X

	// Stack
	case 0x48: // PHA
		cpu.push(cpu.A)
	case 0x68: // PLA
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case 0x08: // PHP
		cpu.push(cpu.GetStatusByte() | bFlagMask | unusedMask)
	case 0x28: // PLP
		cpu.SetStatusByte(cpu.pop() &^ (bFlagMask | unusedMask))

	// Flags
	case 0x18:
		cpu.C = false
	case 0x38:
		cpu.C = true
	case 0x58:
		cpu.I = false
	case 0x78:
		cpu.I = true
	case 0xB8:
		cpu.V = false
	case 0xD8:
		cpu.D = false
	case 0xF8:
		cpu.D = true

	// Control flow
	case 0x4C, 0x6C: // JMP
		cpu.PC = address
	case 0x20: // JSR
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = address
	case 0x60: // RTS
		cpu.PC = cpu.popWord() + 1
	case 0x40: // RTI
		cpu.SetStatusByte(cpu.pop() &^ (bFlagMask | unusedMask))
		cpu.PC = cpu.popWord()
	case 0x00: // BRK
		cpu.PC++ // padding byte
		cpu.interrupt(BRK)

	// Branches
	case 0x10:
		return cpu.branch(!cpu.N, address, pageCrossed)
	case 0x30:
		return cpu.branch(cpu.N, address, pageCrossed)
	case 0x50:
		return cpu.branch(!cpu.V, address, pageCrossed)
	case 0x70:
		return cpu.branch(cpu.V, address, pageCrossed)
	case 0x90:
		return cpu.branch(!cpu.C, address, pageCrossed)
	case 0xB0:
		return cpu.branch(cpu.C, address, pageCrossed)
	case 0xD0:
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case 0xF0:
		return cpu.branch(cpu.Z, address, pageCrossed)

	// NOPs, including the undocumented ones that still read their operand
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
	case 0x80, 0x82, 0x89, 0xC2, 0xE2, 0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		cpu.memory.Read(address)

	// Undocumented
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF: // LAX
		cpu.A = cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case 0x83, 0x87, 0x8F, 0x97: // SAX
		cpu.memory.Write(address, cpu.A&cpu.X)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB: // DCP
		cpu.compare(cpu.A, cpu.modify(address, cpu.dec))
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB: // ISC
		cpu.adc(^cpu.modify(address, cpu.inc))
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B: // SLO
		cpu.A |= cpu.modify(address, cpu.asl)
		cpu.setZN(cpu.A)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B: // RLA
		cpu.A &= cpu.modify(address, cpu.rol)
		cpu.setZN(cpu.A)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B: // SRE
		cpu.A ^= cpu.modify(address, cpu.lsr)
		cpu.setZN(cpu.A)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B: // RRA
		cpu.adc(cpu.modify(address, cpu.ror))

	case 0x0B, 0x2B: // ANC
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
		cpu.C = cpu.N
	case 0x4B: // ALR
		cpu.A = cpu.lsr(cpu.A & cpu.memory.Read(address))
	case 0x6B: // ARR
		cpu.A &= cpu.memory.Read(address)
		cpu.A = cpu.A >> 1
		if cpu.C {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		cpu.C = cpu.A&0x40 != 0
		cpu.V = (cpu.A>>6)&1 != (cpu.A>>5)&1
	case 0x8B: // XAA
		cpu.A = (cpu.A | unstableMagic) & cpu.X & cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case 0xAB: // LXA
		cpu.A = (cpu.A | unstableMagic) & cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case 0xCB: // AXS
		value := cpu.memory.Read(address)
		ax := cpu.A & cpu.X
		cpu.C = ax >= value
		cpu.X = ax - value
		cpu.setZN(cpu.X)
	case 0x93, 0x9F: // AHX
		cpu.memory.Write(address, cpu.A&cpu.X&highPlusOne(address, cpu.Y))
	case 0x9E: // SHX
		cpu.memory.Write(address, cpu.X&highPlusOne(address, cpu.Y))
	case 0x9C: // SHY
		cpu.memory.Write(address, cpu.Y&highPlusOne(address, cpu.X))
	case 0x9B: // TAS
		cpu.SP = cpu.A & cpu.X
		cpu.memory.Write(address, cpu.SP&highPlusOne(address, cpu.Y))
	case 0xBB: // LAS
		cpu.SP &= cpu.memory.Read(address)
		cpu.A = cpu.SP
		cpu.X = cpu.SP
		cpu.setZN(cpu.SP)
	}
	return 0
}

// unstableMagic is the bus constant ORed into A by XAA and LXA
const unstableMagic = 0xEE

// highPlusOne is the value the SH* family ANDs into its store: the high
// byte of the unindexed base address plus one.
func highPlusOne(address uint16, index uint8) uint8 {
	return uint8((address-uint16(index))>>8) + 1
}

func (cpu *CPU) adc(value uint8) {
	carry := uint16(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	// Overflow when both inputs share a sign the result does not
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

// modify applies op to the byte at address, stores and returns the result
func (cpu *CPU) modify(address uint16, op func(uint8) uint8) uint8 {
	value := op(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	return value
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if carry {
		value |= 0x01
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	carry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if carry {
		value |= 0x80
	}
	cpu.setZN(value)
	return value
}

func (cpu *CPU) inc(value uint8) uint8 {
	value++
	cpu.setZN(value)
	return value
}

func (cpu *CPU) dec(value uint8) uint8 {
	value--
	cpu.setZN(value)
	return value
}

// branch jumps when taken: one extra cycle, two if the target is on
// another page.
func (cpu *CPU) branch(taken bool, target uint16, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	cpu.PC = target
	if pageCrossed {
		return 2
	}
	return 1
}
