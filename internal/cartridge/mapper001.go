package cartridge

import "nescore/internal/memory"

// MMC1 implements mapper 1 (SxROM)
// https://wiki.nesdev.com/w/index.php/MMC1
//
// CPU $6000-$7FFF: 8 KB PRG RAM bank
// CPU $8000-$BFFF: 16 KB PRG ROM bank, either switchable or fixed to the first bank
// CPU $C000-$FFFF: 16 KB PRG ROM bank, either fixed to the last bank or switchable
// PPU $0000-$0FFF: 4 KB switchable CHR bank
// PPU $1000-$1FFF: 4 KB switchable CHR bank
type MMC1 struct {
	*banks

	shift   uint8
	counter uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8
}

// newMMC1 creates a new MMC1 board in its power-on state (last bank fixed
// at $C000).
func newMMC1(b *banks) *MMC1 {
	return &MMC1{banks: b, control: 0x0C}
}

// 7  bit  0
// ---- ----
// Rxxx xxxD
// |       |
// |       +- Data bit to be shifted into shift register, LSB first
// +--------- 1: Reset shift register and write Control with (Control OR $0C)
func (m *MMC1) writeLoad(address uint16, value uint8) {
	if value&0x80 != 0 {
		m.shift = 0
		m.counter = 0
		m.control |= 0x0C
		return
	}

	m.shift |= (value & 0x01) << m.counter
	m.counter++
	if m.counter == 5 {
		m.writeRegister(address, m.shift)
		m.shift = 0
		m.counter = 0
	}
}

func (m *MMC1) writeRegister(address uint16, value uint8) {
	switch {
	case address < 0xA000:
		m.control = value
	case address < 0xC000:
		m.chrBank0 = value
	case address < 0xE000:
		m.chrBank1 = value
	default:
		m.prgBank = value
	}
}

func (m *MMC1) prgMode() uint8 {
	return (m.control >> 2) & 0x03
}

func (m *MMC1) ramEnabled() bool {
	return m.prgBank&0x10 == 0
}

// prgPages resolves the two 16 KB windows for the current PRG mode.
func (m *MMC1) prgPages() (low, high memory.Page) {
	count := pages(m.prgROM, memory.Size16K)
	bank := int(m.prgBank & 0x0F)

	switch m.prgMode() {
	case 0, 1:
		// 32KB mode ignores the low bit
		bank &^= 1
		return memory.Number(bank % count), memory.Number((bank | 1) % count)
	case 2:
		return memory.First, memory.Number(bank % count)
	default:
		return memory.Number(bank % count), memory.Last
	}
}

func (m *MMC1) ReadPRG(address uint16) (uint8, error) {
	switch {
	case address >= 0xC000:
		_, high := m.prgPages()
		return m.prgROM.Read(high, memory.Size16K, address-0xC000)
	case address >= 0x8000:
		low, _ := m.prgPages()
		return m.prgROM.Read(low, memory.Size16K, address-0x8000)
	case address >= 0x6000:
		if !m.ramEnabled() {
			return 0, nil
		}
		return m.readPRGRAM(address)
	}
	return 0, unmappedPRG(address)
}

func (m *MMC1) WritePRG(address uint16, value uint8) error {
	switch {
	case address >= 0x8000:
		m.writeLoad(address, value)
		return nil
	case address >= 0x6000:
		if !m.ramEnabled() {
			return nil
		}
		return m.writePRGRAM(address, value)
	}
	return unmappedPRG(address)
}

// chrPage resolves the 4 KB CHR page for address.
func (m *MMC1) chrPage(address uint16) memory.Page {
	count := pages(m.chr(), memory.Size4K)
	var bank int
	if m.control&0x10 == 0 {
		// 8KB mode ignores the low bit of CHR bank 0
		bank = int(m.chrBank0&0x1E) | int(address>>12)
	} else if address < 0x1000 {
		bank = int(m.chrBank0 & 0x1F)
	} else {
		bank = int(m.chrBank1 & 0x1F)
	}
	return memory.Number(bank % count)
}

func (m *MMC1) ReadCHR(address uint16) (uint8, error) {
	if address >= 0x2000 {
		return 0, unmappedCHR(address)
	}
	return m.chr().Read(m.chrPage(address), memory.Size4K, address&0x0FFF)
}

func (m *MMC1) WriteCHR(address uint16, value uint8) error {
	if address >= 0x2000 {
		return unmappedCHR(address)
	}
	if !m.chrWritable() {
		return nil
	}
	return m.chrRAM.Write(m.chrPage(address), memory.Size4K, address&0x0FFF, value)
}

// Mirroring decodes control bits 0-1
func (m *MMC1) Mirroring() Mirroring {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *MMC1) IRQFlag() bool   { return false }
func (m *MMC1) SignalScanline() {}
