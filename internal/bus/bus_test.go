package bus

import (
	"errors"
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/memory"
)

// newTestBus loads an NROM image running program from $8000
func newTestBus(t *testing.T, builder *cartridge.TestROMBuilder) *Bus {
	t.Helper()
	cart, err := builder.BuildCartridge()
	if err != nil {
		t.Fatalf("Failed to create test cartridge: %v", err)
	}
	b := New()
	b.LoadCartridge(cart)
	return b
}

func program(code ...uint8) *cartridge.TestROMBuilder {
	return cartridge.NewTestROMBuilder().WithInstructions(code)
}

func mustStep(t *testing.T, b *Bus) {
	t.Helper()
	if err := b.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
}

func TestBus_ResetClocksPPU(t *testing.T) {
	b := newTestBus(t, program(0xEA))

	if b.Cycles() != 7 {
		t.Errorf("Expected 7 cycles after reset, got %d", b.Cycles())
	}
	if b.PPU.CycleCount() != 21 {
		t.Errorf("Expected 21 PPU dots after reset, got %d", b.PPU.CycleCount())
	}
	if b.CPU.PC != 0x8000 {
		t.Errorf("Expected PC=$8000, got $%04X", b.CPU.PC)
	}
}

func TestBus_ThreeDotsPerCycle(t *testing.T) {
	// NOP; LDA #$42; STA $00; INX; JMP $8000
	b := newTestBus(t, program(0xEA, 0xA9, 0x42, 0x85, 0x00, 0xE8, 0x4C, 0x00, 0x80))

	expected := []uint64{2, 2, 3, 2, 3, 2}
	for i, want := range expected {
		before := b.Cycles()
		mustStep(t, b)
		got := b.Cycles() - before
		if got != want {
			t.Errorf("Instruction %d: Expected %d cycles, got %d", i, want, got)
		}
		if b.PPU.CycleCount() != 3*b.Cycles() {
			t.Errorf("Instruction %d: Expected %d PPU dots, got %d", i, 3*b.Cycles(), b.PPU.CycleCount())
		}
	}
}

func TestBus_StepWithoutCartridge(t *testing.T) {
	b := New()
	if err := b.Step(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("Expected ErrNoCartridge, got %v", err)
	}
}

func TestBus_OAMDMA(t *testing.T) {
	tests := []struct {
		name    string
		code    []uint8
		dmaStep uint64 // stall plus the following NOP
	}{
		// DMA write lands on cycle 9
		{"odd cycle", []uint8{0xA9, 0x02, 0x8D, 0x14, 0x40, 0xEA}, 514 + 2},
		// LDA $00 takes 3, so the write lands on cycle 10
		{"even cycle", []uint8{0xA5, 0x00, 0x8D, 0x14, 0x40, 0xEA}, 513 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBus(t, program(tt.code...))
			b.Memory.Write(0x0000, 0x02)
			for i := uint16(0); i < 256; i++ {
				b.Memory.Write(0x0200+i, uint8(i^0x5A))
			}

			mustStep(t, b)
			mustStep(t, b)
			before := b.Cycles()
			mustStep(t, b)

			if got := b.Cycles() - before; got != tt.dmaStep {
				t.Errorf("Expected %d cycles, got %d", tt.dmaStep, got)
			}
			oam := b.PPU.OAM()
			for i := 0; i < 256; i++ {
				if oam[i] != uint8(i^0x5A) {
					t.Fatalf("OAM[%d]: Expected 0x%02X, got 0x%02X", i, uint8(i^0x5A), oam[i])
				}
			}
		})
	}
}

func TestBus_NMIFromVBlank(t *testing.T) {
	builder := program(
		0xA9, 0x80, // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000 (NMI on)
		0x4C, 0x05, 0x80, // JMP $8005
	).
		WithNMIVector(0x9000).
		WithData(0x1000, []uint8{0xE6, 0x10, 0x40}) // INC $10; RTI
	b := newTestBus(t, builder)

	if err := b.RunFrame(); err != nil {
		t.Fatalf("RunFrame failed: %v", err)
	}
	if got := b.Memory.Read(0x0010); got != 1 {
		t.Errorf("Expected one NMI per frame, counter=%d", got)
	}
	if b.FrameCount() != 1 {
		t.Errorf("Expected frame count 1, got %d", b.FrameCount())
	}

	if err := b.RunFrame(); err != nil {
		t.Fatalf("RunFrame failed: %v", err)
	}
	if got := b.Memory.Read(0x0010); got != 2 {
		t.Errorf("Expected two NMIs after two frames, counter=%d", got)
	}
}

func TestBus_ExternalIRQSource(t *testing.T) {
	// CLI; JMP $8001, with the handler spinning at $9000
	builder := program(0x58, 0x4C, 0x01, 0x80).
		WithIRQVector(0x9000).
		WithData(0x1000, []uint8{0x4C, 0x00, 0x90})
	b := newTestBus(t, builder)

	asserted := false
	b.AddIRQSource(func() bool { return asserted })

	mustStep(t, b)
	mustStep(t, b)
	if b.CPU.PC != 0x8001 {
		t.Fatalf("Expected idle loop at $8001, got $%04X", b.CPU.PC)
	}

	asserted = true
	if !b.IRQLine() {
		t.Error("Expected IRQ line asserted")
	}
	mustStep(t, b)
	if b.CPU.PC != 0x9000 {
		t.Errorf("Expected IRQ handler at $9000, got $%04X", b.CPU.PC)
	}
}

func TestBus_MMC3ScanlineIRQ(t *testing.T) {
	builder := program(
		0xA9, 0x03, // LDA #$03
		0x8D, 0x00, 0xC0, // STA $C000 (latch)
		0x8D, 0x01, 0xC0, // STA $C001 (reload)
		0x8D, 0x01, 0xE0, // STA $E001 (enable)
		0xA9, 0x18, // LDA #$18
		0x8D, 0x01, 0x20, // STA $2001 (rendering on)
		0x4C, 0x10, 0x80, // JMP $8010
	).WithMapper(4).WithPRGSize(2)
	b := newTestBus(t, builder)

	if err := b.RunFrame(); err != nil {
		t.Fatalf("RunFrame failed: %v", err)
	}
	if !b.IRQLine() {
		t.Fatal("Expected MMC3 to assert IRQ after rendered scanlines")
	}
	// I is still set from reset
	if b.CPU.PC < 0x8010 || b.CPU.PC > 0x8012 {
		t.Errorf("Expected CPU to stay in its loop, PC=$%04X", b.CPU.PC)
	}

	b.Memory.Write(0xE000, 0)
	if b.IRQLine() {
		t.Error("Expected $E000 write to acknowledge the IRQ")
	}
}

func TestBus_IllegalOpcodeHalts(t *testing.T) {
	b := newTestBus(t, program(0xEA, 0x02))
	mustStep(t, b)

	err := b.Step()
	if !errors.Is(err, cpu.ErrIllegalOpcode) {
		t.Fatalf("Expected ErrIllegalOpcode, got %v", err)
	}
	if again := b.Step(); again != err {
		t.Errorf("Expected halted bus to return the same error, got %v", again)
	}
	if b.Halted() == nil {
		t.Error("Expected Halted to report the error")
	}

	b.Reset()
	if b.Halted() != nil {
		t.Error("Expected Reset to clear the halt")
	}
}

func TestBus_MapperFaultHalts(t *testing.T) {
	// Select UxROM bank 7 on a two-bank board, then fall through into it
	builder := program(0xA9, 0x07, 0x8D, 0x00, 0x80, 0xEA).WithMapper(2).WithPRGSize(2)
	b := newTestBus(t, builder)

	mustStep(t, b)
	mustStep(t, b)
	err := b.Step()
	if !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Fatalf("Expected ErrAddressOutOfRange, got %v", err)
	}
	var addrErr *memory.AddressError
	if !errors.As(err, &addrErr) {
		t.Errorf("Expected *memory.AddressError in chain, got %T", err)
	}
}

func TestBus_ControllerRouting(t *testing.T) {
	b := newTestBus(t, program(0xEA))
	b.SetControllerButtons(1, [8]bool{true}) // A
	b.SetControllerButtons(2, [8]bool{false, true}) // B

	b.Memory.Write(0x4016, 1)
	b.Memory.Write(0x4016, 0)

	if got := b.Memory.Read(0x4016); got != 0x41 {
		t.Errorf("Port 1 bit A: Expected 0x41, got 0x%02X", got)
	}
	if got := b.Memory.Read(0x4017); got != 0x40 {
		t.Errorf("Port 2 bit A: Expected 0x40, got 0x%02X", got)
	}
	if got := b.Memory.Read(0x4017); got != 0x41 {
		t.Errorf("Port 2 bit B: Expected 0x41, got 0x%02X", got)
	}
}

func TestBus_InstructionHook(t *testing.T) {
	b := newTestBus(t, program(0xEA, 0xEA, 0xEA))

	var seen []uint16
	b.SetInstructionHook(func(c *cpu.CPU, mem cpu.Peeker) {
		seen = append(seen, c.PC)
	})
	mustStep(t, b)
	mustStep(t, b)
	b.SetInstructionHook(nil)
	mustStep(t, b)

	if len(seen) != 2 || seen[0] != 0x8000 || seen[1] != 0x8001 {
		t.Errorf("Expected hook at $8000 and $8001, got %v", seen)
	}
}

func TestBus_RunCycles(t *testing.T) {
	b := newTestBus(t, program(0x4C, 0x00, 0x80)) // JMP $8000

	if err := b.RunCycles(30); err != nil {
		t.Fatalf("RunCycles failed: %v", err)
	}
	// 7 + 10 JMPs
	if b.Cycles() != 37 {
		t.Errorf("Expected 37 cycles, got %d", b.Cycles())
	}
}

func TestBus_StallDrainsBeforeFetch(t *testing.T) {
	b := newTestBus(t, program(0xEA))
	b.Stall(5)
	mustStep(t, b)
	if b.Cycles() != 7+5+2 {
		t.Errorf("Expected 14 cycles, got %d", b.Cycles())
	}
}
