// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"errors"
	"fmt"
	"log"
)

// CPU constants
const (
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	// Status after reset: I, B and the unused bit
	resetStatus = 0x34
)

// ErrIllegalOpcode is returned by Step when the fetched byte has no handler.
var ErrIllegalOpcode = errors.New("illegal opcode")

// IllegalOpcodeError carries the opcode and where it was fetched
type IllegalOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode $%02X at $%04X", e.Opcode, e.PC)
}

func (e *IllegalOpcodeError) Unwrap() error {
	return ErrIllegalOpcode
}

// Interrupt identifies one of the four ways the CPU loads PC from a vector
type Interrupt int

const (
	NMI Interrupt = iota
	IRQ
	Reset
	BRK
)

func (i Interrupt) String() string {
	switch i {
	case NMI:
		return "NMI"
	case IRQ:
		return "IRQ"
	case Reset:
		return "RESET"
	case BRK:
		return "BRK"
	}
	return fmt.Sprintf("Interrupt(%d)", int(i))
}

// interruptSequences holds each kind's vector, the cycles spent before the
// stack pushes, and whether state is pushed at all.
var interruptSequences = [...]struct {
	vector uint16
	ticks  uint64
	push   bool
}{
	NMI:   {0xFFFA, 2, true},
	IRQ:   {0xFFFE, 2, true},
	Reset: {0xFFFC, 5, false},
	BRK:   {0xFFFE, 1, true}, // opcode fetch is already counted
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (no effect on the 2A03)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	// Cycle counter
	cycles uint64

	// Interrupt inputs
	nmiPending bool
	irqPending bool
	irqLine    bool

	// Debug and loop detection fields
	enableDebugLogging  bool
	enableLoopDetection bool
	lastPC              uint16
	pcStayCount         int
}

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFF,
	}
}

// Reset loads PC from the reset vector with SP=$FF and P=$34. It returns
// the cycles the sequence took.
func (cpu *CPU) Reset() uint64 {
	cpu.A, cpu.X, cpu.Y = 0, 0, 0
	cpu.SP = 0xFF
	cpu.SetStatusByte(resetStatus)
	cpu.nmiPending = false
	cpu.irqPending = false
	cpu.irqLine = false

	cycles := cpu.interrupt(Reset)
	cpu.cycles += cycles
	return cycles
}

// Step services a pending interrupt or executes one instruction, and
// returns the cycles consumed.
func (cpu *CPU) Step() (uint64, error) {
	if kind, ok := cpu.pendingInterrupt(); ok {
		cycles := cpu.interrupt(kind)
		cpu.cycles += cycles
		return cycles, nil
	}

	currentPC := cpu.PC
	opcode := cpu.memory.Read(currentPC)
	instruction := &instructions[opcode]

	if cpu.enableLoopDetection {
		cpu.detectInfiniteLoop(currentPC, opcode)
	}
	if cpu.enableDebugLogging {
		cpu.logInstruction(currentPC, opcode, instruction)
	}

	if instruction.Cycles == 0 {
		return 0, &IllegalOpcodeError{Opcode: opcode, PC: currentPC}
	}

	cpu.PC++
	address, pageCrossed := cpu.operandAddress(instruction.Mode)
	extraCycles := cpu.execute(opcode, address, pageCrossed)

	// Branches charge their own page penalty
	if pageCrossed && instruction.PagePenalty {
		extraCycles++
	}

	total := uint64(instruction.Cycles) + uint64(extraCycles)
	cpu.cycles += total
	return total, nil
}

// Cycles returns the total cycles executed since creation
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// operandAddress resolves the effective address for mode with PC just past
// the opcode, leaving PC at the next instruction. The flag reports whether
// indexing crossed a page (for Relative, whether the target is on another
// page than the next instruction).
func (cpu *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		address := cpu.PC
		cpu.PC++
		return address, false

	case ZeroPage:
		return uint16(cpu.fetch()), false

	case ZeroPageX:
		return uint16(cpu.fetch() + cpu.X), false // wraps within zero page

	case ZeroPageY:
		return uint16(cpu.fetch() + cpu.Y), false

	case Relative:
		offset := int8(cpu.fetch())
		target := uint16(int32(cpu.PC) + int32(offset))
		return target, cpu.PC&pageMask != target&pageMask

	case Absolute:
		return cpu.fetchWord(), false

	case AbsoluteX:
		base := cpu.fetchWord()
		address := base + uint16(cpu.X)
		return address, base&pageMask != address&pageMask

	case AbsoluteY:
		base := cpu.fetchWord()
		address := base + uint16(cpu.Y)
		return address, base&pageMask != address&pageMask

	case Indirect: // Only used by JMP
		ptr := cpu.fetchWord()
		low := uint16(cpu.memory.Read(ptr))
		// The high byte never carries into the next page
		high := uint16(cpu.memory.Read(ptr&pageMask | (ptr+1)&zeroPageMask))
		return high<<8 | low, false

	case IndexedIndirect: // (zp,X)
		ptr := cpu.fetch() + cpu.X
		return cpu.readZeroPageWord(ptr), false

	case IndirectIndexed: // (zp),Y
		base := cpu.readZeroPageWord(cpu.fetch())
		address := base + uint16(cpu.Y)
		return address, base&pageMask != address&pageMask
	}
	return 0, false
}

func (cpu *CPU) fetch() uint8 {
	value := cpu.memory.Read(cpu.PC)
	cpu.PC++
	return value
}

func (cpu *CPU) fetchWord() uint16 {
	low := uint16(cpu.fetch())
	high := uint16(cpu.fetch())
	return high<<8 | low
}

func (cpu *CPU) readWord(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

func (cpu *CPU) readZeroPageWord(ptr uint8) uint16 {
	low := uint16(cpu.memory.Read(uint16(ptr)))
	high := uint16(cpu.memory.Read(uint16(ptr + 1)))
	return high<<8 | low
}

// Stack operations. SP wraps within page one.
func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase | uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// interrupt runs the entry sequence for kind and returns its cycle cost.
func (cpu *CPU) interrupt(kind Interrupt) uint64 {
	seq := interruptSequences[kind]
	cycles := seq.ticks

	if seq.push {
		cpu.pushWord(cpu.PC)
		status := cpu.GetStatusByte()&^bFlagMask | unusedMask
		if kind == BRK {
			status |= bFlagMask
			cpu.B = true
		}
		cpu.push(status)
		cycles += 3
		cpu.I = true
	}

	cpu.PC = cpu.readWord(seq.vector)
	return cycles + 2
}

func (cpu *CPU) pendingInterrupt() (Interrupt, bool) {
	// NMI has highest priority and cannot be disabled
	if cpu.nmiPending {
		cpu.nmiPending = false
		return NMI, true
	}
	if (cpu.irqPending || cpu.irqLine) && !cpu.I {
		cpu.irqPending = false
		return IRQ, true
	}
	return 0, false
}

// RaiseNMI queues an NMI for the next Step
func (cpu *CPU) RaiseNMI() {
	cpu.nmiPending = true
}

// RaiseIRQ queues an IRQ that stays pending until the I flag allows it
func (cpu *CPU) RaiseIRQ() {
	cpu.irqPending = true
}

// SetIRQLine sets the level of the shared IRQ line. A held line is serviced
// whenever I is clear.
func (cpu *CPU) SetIRQLine(asserted bool) {
	cpu.irqLine = asserted
}

// GetStatusByte returns the status register as a byte. Bit 5 always reads set.
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.B {
		status |= bFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.B = status&bFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// EnableDebugLogging enables/disables CPU instruction logging
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.enableDebugLogging = enable
}

// EnableLoopDetection enables/disables infinite loop detection
func (cpu *CPU) EnableLoopDetection(enable bool) {
	cpu.enableLoopDetection = enable
}

// detectInfiniteLoop reports when the CPU keeps fetching from one PC
func (cpu *CPU) detectInfiniteLoop(pc uint16, opcode uint8) {
	if pc != cpu.lastPC {
		cpu.pcStayCount = 0
		cpu.lastPC = pc
		return
	}
	cpu.pcStayCount++
	if cpu.pcStayCount%1000 == 0 {
		log.Printf("[CPU] Stuck at PC=$%04X opcode=$%02X for %d steps | %s",
			pc, opcode, cpu.pcStayCount, cpu.flagsString())
	}
}

func (cpu *CPU) logInstruction(pc uint16, opcode uint8, instruction *Instruction) {
	name := instruction.Name
	if name == "" {
		name = "???"
	}
	log.Printf("[CPU] PC=$%04X: %s ($%02X) | A=$%02X X=$%02X Y=$%02X SP=$%02X | %s",
		pc, name, opcode, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.flagsString())
}

// flagsString renders the status register as NV-BDIZC
func (cpu *CPU) flagsString() string {
	flags := []byte("--------")
	set := [8]bool{cpu.N, cpu.V, false, cpu.B, cpu.D, cpu.I, cpu.Z, cpu.C}
	for i, on := range set {
		if on {
			flags[i] = "NV-BDIZC"[i]
		}
	}
	return string(flags)
}
