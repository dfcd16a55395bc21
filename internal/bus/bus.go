// Package bus wires the CPU, the memory map, the PPU shell, the controllers
// and the cartridge together and keeps them in step.
package bus

import (
	"errors"
	"fmt"
	"log"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// ErrNoCartridge is returned when stepping a bus with nothing loaded
var ErrNoCartridge = errors.New("no cartridge loaded")

// PPU dots per CPU cycle (NTSC)
const dotsPerCycle = 3

// IRQSource is anything besides the cartridge that can hold the IRQ line low
type IRQSource func() bool

// InstructionHook observes the CPU right before each instruction fetch
type InstructionHook func(c *cpu.CPU, mem cpu.Peeker)

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	VRAM      *ppu.VideoMemory
	Memory    *memory.Memory
	Input     *input.InputState
	Cartridge *cartridge.Cartridge

	// CPU cycles since reset, stalls included
	cycles uint64
	// Cycles the CPU must sit out before its next fetch
	stall uint64

	irqSources []IRQSource
	hook       InstructionHook

	frameDone bool

	// First fatal error; the bus refuses to run past it
	halted error
}

// New creates a bus with no cartridge inserted
func New() *Bus {
	b := &Bus{
		Input: input.NewInputState(),
	}

	b.VRAM = ppu.NewVideoMemory(nil)
	b.PPU = ppu.New(b.VRAM)
	b.Memory = memory.New(b.PPU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.CPU = cpu.New(b.Memory)

	b.PPU.SetNMICallback(b.CPU.RaiseNMI)
	b.PPU.SetScanlineCallback(b.signalScanline)
	b.PPU.SetFrameCompleteCallback(func() { b.frameDone = true })
	b.Memory.SetDMACallback(b.TriggerOAMDMA)

	return b
}

// LoadCartridge inserts cart into both address spaces and resets the system
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	b.VRAM.SetCartridge(cart)
	b.Memory.SetCartridge(cart)

	log.Printf("[BUS] Loaded cartridge: %s", cart.Header())
	b.Reset()
}

// Reset puts every component in its power-on state and runs the CPU's
// reset sequence. The sequence's cycles clock the PPU like any others.
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.Input.Reset()

	b.cycles = 0
	b.stall = 0
	b.frameDone = false
	b.halted = nil
	b.Memory.TakeFault()
	b.PPU.TakeFault()

	for n := b.CPU.Reset(); n > 0; n-- {
		b.Tick()
	}
}

// Tick advances the system by one CPU cycle
func (b *Bus) Tick() {
	b.cycles++
	for i := 0; i < dotsPerCycle; i++ {
		b.PPU.Step()
	}
}

// Stall makes the CPU sit out n cycles before its next instruction
func (b *Bus) Stall(n uint64) {
	b.stall += n
}

// AddIRQSource registers an extra device on the shared IRQ line
func (b *Bus) AddIRQSource(source IRQSource) {
	b.irqSources = append(b.irqSources, source)
}

// IRQLine reports whether any device is asserting IRQ
func (b *Bus) IRQLine() bool {
	if b.Cartridge != nil && b.Cartridge.IRQFlag() {
		return true
	}
	for _, source := range b.irqSources {
		if source() {
			return true
		}
	}
	return false
}

// SetInstructionHook installs fn to run before every instruction; nil removes it
func (b *Bus) SetInstructionHook(fn InstructionHook) {
	b.hook = fn
}

// Step drains any pending stall, then executes one instruction (or
// interrupt entry) and clocks the rest of the system for its cycles.
// A returned error is fatal; every later call returns it again.
func (b *Bus) Step() error {
	if b.halted != nil {
		return b.halted
	}
	if b.Cartridge == nil {
		return ErrNoCartridge
	}

	for ; b.stall > 0; b.stall-- {
		b.Tick()
	}

	b.CPU.SetIRQLine(b.IRQLine())

	pc := b.CPU.PC
	if b.hook != nil {
		b.hook(b.CPU, b.Memory)
	}

	cycles, err := b.CPU.Step()
	if err != nil {
		return b.halt(err)
	}
	for ; cycles > 0; cycles-- {
		b.Tick()
	}

	if err := b.Memory.TakeFault(); err != nil {
		return b.halt(fmt.Errorf("cpu bus access near $%04X: %w", pc, err))
	}
	if err := b.PPU.TakeFault(); err != nil {
		return b.halt(fmt.Errorf("ppu bus access near $%04X: %w", pc, err))
	}
	return nil
}

func (b *Bus) halt(err error) error {
	b.halted = err
	log.Printf("[BUS] Halted after %d cycles: %v", b.cycles, err)
	return err
}

// Halted returns the error that stopped the bus, if any
func (b *Bus) Halted() error {
	return b.halted
}

// RunFrame steps until the PPU wraps to the next frame
func (b *Bus) RunFrame() error {
	b.frameDone = false
	for !b.frameDone {
		if err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles steps until at least n more CPU cycles have elapsed
func (b *Bus) RunCycles(n uint64) error {
	target := b.cycles + n
	for b.cycles < target {
		if err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// TriggerOAMDMA copies a CPU page into OAM and stalls the CPU for the
// transfer: 513 cycles, plus one when it starts on an odd cycle.
func (b *Bus) TriggerOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAM(uint8(i), b.Memory.Read(base+uint16(i)))
	}

	stall := uint64(513)
	if b.cycles%2 == 1 {
		stall++
	}
	b.Stall(stall)
}

func (b *Bus) signalScanline() {
	if b.Cartridge != nil {
		b.Cartridge.SignalScanline()
	}
}

// Cycles returns CPU cycles since reset
func (b *Bus) Cycles() uint64 {
	return b.cycles
}

// FrameCount returns completed PPU frames since reset
func (b *Bus) FrameCount() uint64 {
	return b.PPU.FrameCount()
}

// SetControllerButtons sets all button states for a controller (1 or 2)
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.Controller1.SetButtons(buttons)
	case 2:
		b.Input.Controller2.SetButtons(buttons)
	}
}

// EnableCPUDebug enables/disables CPU debug logging and loop detection
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableDebugLogging(enable)
	b.CPU.EnableLoopDetection(enable)
}

// EnableInputDebug enables debug logging for input system
func (b *Bus) EnableInputDebug(enable bool) {
	b.Input.EnableDebug(enable)
}
