// Package ppu implements the CPU-visible side of the 2C02: its registers,
// frame timing and the video memory it addresses. Pixels are not produced.
package ppu

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// PPU Registers (CPU-visible)
	ppuCtrl   uint8 // $2000 - PPUCTRL
	ppuMask   uint8 // $2001 - PPUMASK
	ppuStatus uint8 // $2002 - PPUSTATUS
	oamAddr   uint8 // $2003 - OAMADDR

	// Internal PPU State
	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits) - address latch
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch (toggles between first/second write)

	// Last value written to any register; low status bits read it back
	openBus uint8

	vram *VideoMemory
	oam  [256]uint8

	// Timing
	scanline   int // Current scanline (-1 to 260)
	cycle      int // Current cycle (0 to 340)
	frameCount uint64
	oddFrame   bool
	cycleCount uint64

	// Callbacks
	nmiCallback           func()
	scanlineCallback      func()
	frameCompleteCallback func()

	// First VRAM fault since the last TakeFault
	fault error
}

// New creates a new PPU instance
func New(vram *VideoMemory) *PPU {
	return &PPU{
		vram:     vram,
		scanline: -1, // Start at pre-render scanline
	}
}

// Reset resets the PPU to initial state
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.openBus = 0
	p.scanline = -1
	p.cycle = 0
	p.frameCount = 0
	p.oddFrame = false
	p.cycleCount = 0
	p.fault = nil
}

// SetNMICallback sets the function called when vblank raises NMI
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetScanlineCallback sets the function called once per rendered scanline
// while rendering is enabled. Mappers with scanline counters hang off it.
func (p *PPU) SetScanlineCallback(callback func()) {
	p.scanlineCallback = callback
}

// SetFrameCompleteCallback sets the frame complete callback
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

// TakeFault returns the first VRAM error recorded since the previous call
func (p *PPU) TakeFault() error {
	err := p.fault
	p.fault = nil
	return err
}

func (p *PPU) record(err error) {
	if err != nil && p.fault == nil {
		p.fault = err
	}
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002: // PPUSTATUS
		status := (p.ppuStatus & 0xE0) | (p.openBus & 0x1F)
		p.ppuStatus &= 0x7F // Clear VBL flag
		p.w = false         // Clear write latch
		return status
	case 0x2004: // OAMDATA
		return p.oam[p.oamAddr]
	case 0x2007: // PPUDATA
		return p.readPPUData()
	default:
		// Write-only registers return open bus
		return p.openBus
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.openBus = value

	switch address {
	case 0x2000: // PPUCTRL
		wasEnabled := p.ppuCtrl&0x80 != 0
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10) // Nametable select
		// Enabling NMI during vblank fires immediately
		if !wasEnabled && value&0x80 != 0 && p.ppuStatus&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	case 0x2001: // PPUMASK
		p.ppuMask = value
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005: // PPUSCROLL
		p.writePPUScroll(value)
	case 0x2006: // PPUADDR
		p.writePPUAddr(value)
	case 0x2007: // PPUDATA
		p.writePPUData(value)
	}
}

// WriteOAM writes to OAM at the specified address (for DMA)
func (p *PPU) WriteOAM(address uint8, value uint8) {
	p.oam[address] = value
}

// Step advances the PPU by one dot
func (p *PPU) Step() {
	p.cycleCount++

	p.cycle++
	// Odd frames skip the last pre-render dot while rendering
	if p.scanline == -1 && p.cycle == 340 && p.oddFrame && p.RenderingEnabled() {
		p.cycle = 341
	}
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++

		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame

			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	switch {
	case p.scanline == 241 && p.cycle == 1:
		p.ppuStatus |= 0x80
		if p.ppuCtrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}

	case p.scanline == -1 && p.cycle == 1:
		// Clear VBL, sprite 0 hit and overflow
		p.ppuStatus &= 0x1F

	case p.scanline < 240 && p.cycle == 260 && p.RenderingEnabled():
		if p.scanlineCallback != nil {
			p.scanlineCallback()
		}
	}

	p.checkSprite0Hit()
}

// checkSprite0Hit approximates the hit at sprite 0's top-left pixel, since
// no pixels are composed to compare against.
func (p *PPU) checkSprite0Hit() {
	if p.ppuMask&0x18 != 0x18 || p.ppuStatus&0x40 != 0 {
		return
	}
	y, x := int(p.oam[0])+1, int(p.oam[3])
	if p.scanline == y && p.cycle == x+1 && y < 240 && x < 255 {
		p.ppuStatus |= 0x40
	}
}

// RenderingEnabled reports whether background or sprites are on
func (p *PPU) RenderingEnabled() bool {
	return p.ppuMask&0x18 != 0
}

func (p *PPU) increment() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32 // down
	} else {
		p.v++ // across
	}
	p.v &= 0x3FFF
}

// writePPUScroll handles writes to PPUSCROLL ($2005)
func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3) // Coarse X
		p.x = value & 0x07                          // Fine X
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12) // Fine Y
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)  // Coarse Y
		p.w = false
	}
}

// writePPUAddr handles writes to PPUADDR ($2006)
func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

// readPPUData handles reads from PPUDATA ($2007)
func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.vram != nil {
		v, err := p.vram.BufferedRead(p.v)
		p.record(err)
		data = v
	}
	p.increment()
	return data
}

// writePPUData handles writes to PPUDATA ($2007)
func (p *PPU) writePPUData(value uint8) {
	if p.vram != nil {
		p.record(p.vram.Write(p.v, value))
	}
	p.increment()
}

// VideoMemory returns the memory the PPU addresses
func (p *PPU) VideoMemory() *VideoMemory {
	return p.vram
}

// OAM returns a copy of sprite memory
func (p *PPU) OAM() [256]uint8 {
	return p.oam
}

// FrameCount returns the number of completed frames
func (p *PPU) FrameCount() uint64 {
	return p.frameCount
}

// Scanline returns the current scanline (-1 is pre-render)
func (p *PPU) Scanline() int {
	return p.scanline
}

// Cycle returns the dot within the scanline
func (p *PPU) Cycle() int {
	return p.cycle
}

// IsVBlank returns true if currently in vertical blank
func (p *PPU) IsVBlank() bool {
	return p.ppuStatus&0x80 != 0
}

// CycleCount returns the total PPU dot count
func (p *PPU) CycleCount() uint64 {
	return p.cycleCount
}

// NES 2C02 Color Palette (NTSC)
var nesColorPalette = [64]uint32{
	// Row 0 (0x00-0x0F)
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 1 (0x10-0x1F)
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 2 (0x20-0x2F)
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	// Row 3 (0x30-0x3F)
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a NES color index to RGB value (0x00RRGGBB)
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0x000000
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}
