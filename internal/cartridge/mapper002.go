package cartridge

import "nescore/internal/memory"

// UxROM implements mapper 2
// CPU $8000-$BFFF: 16 KB switchable PRG ROM bank
// CPU $C000-$FFFF: 16 KB PRG ROM bank, fixed to the last bank
type UxROM struct {
	*banks
	prgBank int
}

// newUxROM creates a new UxROM board
func newUxROM(b *banks) *UxROM {
	return &UxROM{banks: b}
}

func (m *UxROM) ReadPRG(address uint16) (uint8, error) {
	switch {
	case address >= 0xC000:
		return m.prgROM.Read(memory.Last, memory.Size16K, address-0xC000)
	case address >= 0x8000:
		return m.prgROM.Read(memory.Number(m.prgBank), memory.Size16K, address-0x8000)
	case address >= 0x6000:
		return m.readPRGRAM(address)
	}
	return 0, unmappedPRG(address)
}

// WritePRG selects the $8000 bank from the low four bits of any ROM write.
func (m *UxROM) WritePRG(address uint16, value uint8) error {
	switch {
	case address >= 0x8000:
		m.prgBank = int(value & 0x0F)
		return nil
	case address >= 0x6000:
		return m.writePRGRAM(address, value)
	}
	return unmappedPRG(address)
}

func (m *UxROM) ReadCHR(address uint16) (uint8, error) {
	return m.readFixedCHR(address)
}

func (m *UxROM) WriteCHR(address uint16, value uint8) error {
	return m.writeFixedCHR(address, value)
}

func (m *UxROM) Mirroring() Mirroring { return m.header.Mirroring }
func (m *UxROM) IRQFlag() bool        { return false }
func (m *UxROM) SignalScanline()      {}
