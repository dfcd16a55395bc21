package cartridge

import "nescore/internal/memory"

// CNROM implements mapper 3: fixed PRG, one switchable 8 KB CHR ROM bank
// selected by the full byte written anywhere in $8000-$FFFF.
type CNROM struct {
	*banks
	chrBank int
}

// newCNROM creates a new CNROM board
func newCNROM(b *banks) *CNROM {
	return &CNROM{banks: b}
}

func (m *CNROM) ReadPRG(address uint16) (uint8, error) {
	switch {
	case address >= 0xC000:
		return m.prgROM.Read(memory.Last, memory.Size16K, address-0xC000)
	case address >= 0x8000:
		return m.prgROM.Read(memory.First, memory.Size16K, address-0x8000)
	case address >= 0x6000:
		return m.readPRGRAM(address)
	}
	return 0, unmappedPRG(address)
}

func (m *CNROM) WritePRG(address uint16, value uint8) error {
	switch {
	case address >= 0x8000:
		m.chrBank = int(value)
		return nil
	case address >= 0x6000:
		return m.writePRGRAM(address, value)
	}
	return unmappedPRG(address)
}

func (m *CNROM) ReadCHR(address uint16) (uint8, error) {
	if address >= 0x2000 {
		return 0, unmappedCHR(address)
	}
	return m.chrROM.Read(memory.Number(m.chrBank), memory.Size8K, address)
}

// WriteCHR is a no-op; CNROM character memory is ROM.
func (m *CNROM) WriteCHR(address uint16, value uint8) error {
	if address >= 0x2000 {
		return unmappedCHR(address)
	}
	return nil
}

func (m *CNROM) Mirroring() Mirroring { return m.header.Mirroring }
func (m *CNROM) IRQFlag() bool        { return false }
func (m *CNROM) SignalScanline()      {}
