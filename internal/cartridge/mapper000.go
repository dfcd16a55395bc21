package cartridge

import "nescore/internal/memory"

// NROM implements mapper 0
// NROM is the simplest board with no bank switching capabilities.
// It supports:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill 32KB address space)
// - 8KB CHR ROM or CHR RAM
// - 8KB PRG RAM at 0x6000-0x7FFF
type NROM struct {
	*banks
}

// newNROM creates a new NROM board
func newNROM(b *banks) *NROM {
	return &NROM{banks: b}
}

// ReadPRG reads from PRG ROM/RAM
// Memory map:
// 0x6000-0x7FFF: 8KB PRG RAM
// 0x8000-0xBFFF: first 16KB page
// 0xC000-0xFFFF: last 16KB page (the same page on 16KB boards)
func (m *NROM) ReadPRG(address uint16) (uint8, error) {
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

// WritePRG writes to PRG RAM. ROM writes are dropped.
func (m *NROM) WritePRG(address uint16, value uint8) error {
	switch {
	case address >= 0x8000:
		return nil
	case address >= 0x6000:
		return m.writePRGRAM(address, value)
	}
	return unmappedPRG(address)
}

// ReadCHR reads from CHR ROM/RAM
func (m *NROM) ReadCHR(address uint16) (uint8, error) {
	return m.readFixedCHR(address)
}

// WriteCHR writes to CHR RAM
func (m *NROM) WriteCHR(address uint16, value uint8) error {
	return m.writeFixedCHR(address, value)
}

func (m *NROM) Mirroring() Mirroring { return m.header.Mirroring }
func (m *NROM) IRQFlag() bool        { return false }
func (m *NROM) SignalScanline()      {}
