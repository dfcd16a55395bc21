package ppu

import (
	"testing"

	"nescore/internal/cartridge"
)

func newTestPPU() (*PPU, *MockCartridge) {
	cart := NewMockCartridge(cartridge.MirrorHorizontal)
	return New(NewVideoMemory(cart)), cart
}

// runDots steps the PPU n dots
func runDots(p *PPU, n int) {
	for i := 0; i < n; i++ {
		p.Step()
	}
}

func TestPPU_DataPortWithIncrement(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x01)
	p.WriteRegister(0x2007, 0x02)

	// Increment by 32
	p.WriteRegister(0x2000, 0x04)
	p.WriteRegister(0x2006, 0x21)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x03)
	p.WriteRegister(0x2007, 0x04)

	vm := p.VideoMemory()
	checks := map[uint16]uint8{0x2000: 1, 0x2001: 2, 0x2100: 3, 0x2120: 4}
	for addr, want := range checks {
		if v, _ := vm.Read(addr); v != want {
			t.Errorf("$%04X: Expected 0x%02X, got 0x%02X", addr, want, v)
		}
	}

	// Buffered reads through $2007
	p.WriteRegister(0x2000, 0x00)
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.ReadRegister(0x2007) // dummy
	if v := p.ReadRegister(0x2007); v != 0x01 {
		t.Errorf("Expected 0x01 after dummy read, got 0x%02X", v)
	}
}

func TestPPU_StatusClearsVBlankAndLatch(t *testing.T) {
	p, _ := newTestPPU()

	// Run to scanline 241 dot 1
	runDots(p, 242*341+1)
	if !p.IsVBlank() {
		t.Fatalf("Expected vblank at scanline %d dot %d", p.Scanline(), p.Cycle())
	}

	p.WriteRegister(0x2006, 0x3F) // first write sets latch
	status := p.ReadRegister(0x2002)
	if status&0x80 == 0 {
		t.Errorf("Expected VBL bit in status 0x%02X", status)
	}
	if p.IsVBlank() {
		t.Error("Reading PPUSTATUS should clear vblank")
	}
	if p.w {
		t.Error("Reading PPUSTATUS should reset the write latch")
	}
}

func TestPPU_NMIAtVBlank(t *testing.T) {
	p, _ := newTestPPU()
	nmis := 0
	p.SetNMICallback(func() { nmis++ })

	runDots(p, 242*341+1)
	if nmis != 0 {
		t.Fatal("NMI fired with PPUCTRL bit 7 clear")
	}

	// Enabling NMI during vblank fires at once
	p.WriteRegister(0x2000, 0x80)
	if nmis != 1 {
		t.Errorf("Expected NMI on enable during vblank, got %d", nmis)
	}
	p.WriteRegister(0x2000, 0x80)
	if nmis != 1 {
		t.Errorf("Rewriting PPUCTRL must not refire NMI, got %d", nmis)
	}

	// Next frame fires at 241/1
	runDots(p, 262*341)
	if nmis != 2 {
		t.Errorf("Expected second NMI one frame later, got %d", nmis)
	}
}

func TestPPU_FrameTiming(t *testing.T) {
	p, _ := newTestPPU()
	frames := 0
	p.SetFrameCompleteCallback(func() { frames++ })

	runDots(p, 262*341)
	if frames != 1 || p.FrameCount() != 1 {
		t.Errorf("Expected one frame after 89342 dots, got %d", frames)
	}
	if p.Scanline() != -1 {
		t.Errorf("Expected pre-render scanline, got %d", p.Scanline())
	}
}

func TestPPU_ScanlineSignalOnlyWhileRendering(t *testing.T) {
	p, _ := newTestPPU()
	lines := 0
	p.SetScanlineCallback(func() { lines++ })

	runDots(p, 262*341)
	if lines != 0 {
		t.Errorf("Expected no scanline signals with rendering off, got %d", lines)
	}

	p.WriteRegister(0x2001, 0x18)
	runDots(p, 262*341)
	// Pre-render plus 240 visible lines
	if lines != 241 {
		t.Errorf("Expected 241 scanline signals, got %d", lines)
	}
}

func TestPPU_OAMPort(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0xFE)
	p.WriteRegister(0x2004, 0x11)
	p.WriteRegister(0x2004, 0x22)

	oam := p.OAM()
	if oam[0xFE] != 0x11 || oam[0xFF] != 0x22 {
		t.Errorf("OAM writes wrong: FE=%02X FF=%02X", oam[0xFE], oam[0xFF])
	}
	p.WriteRegister(0x2003, 0xFF)
	if v := p.ReadRegister(0x2004); v != 0x22 {
		t.Errorf("Expected OAMDATA read 0x22, got 0x%02X", v)
	}
}

func TestPPU_RecordsVRAMFault(t *testing.T) {
	p, cart := newTestPPU()
	cart.fail = true

	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2006, 0x10)
	p.WriteRegister(0x2007, 0x01)

	if err := p.TakeFault(); err == nil {
		t.Fatal("Expected a recorded fault")
	}
	if err := p.TakeFault(); err != nil {
		t.Errorf("Fault should clear after TakeFault, got %v", err)
	}
}

func TestPPU_Sprite0HitApproximation(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteOAM(0, 30) // Y
	p.WriteOAM(3, 40) // X
	p.WriteRegister(0x2001, 0x18)

	// Scanline 31, dot 41 is 32 lines after pre-render
	runDots(p, 32*341+41)
	if p.ReadRegister(0x2002)&0x40 == 0 {
		t.Error("Expected sprite 0 hit flag")
	}
}

func TestNESColorToRGB(t *testing.T) {
	if NESColorToRGB(0x0F) != 0x000000 {
		t.Errorf("Expected black for $0F, got %06X", NESColorToRGB(0x0F))
	}
	if NESColorToRGB(0x30) != 0xFFFEFF {
		t.Errorf("Expected white for $30, got %06X", NESColorToRGB(0x30))
	}
	if NESColorToRGB(0x40) != 0 {
		t.Error("Out of range index should be black")
	}
}
