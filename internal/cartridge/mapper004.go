package cartridge

import "nescore/internal/memory"

// MMC3 implements mapper 4 (TxROM)
// https://wiki.nesdev.com/w/index.php/MMC3
//
// The MMC3 has 4 pairs of registers at $8000-$9FFF, $A000-$BFFF, $C000-$DFFF
// and $E000-$FFFF. Even addresses select the low register of each pair, odd
// addresses the high one. $8000/$8001/$A000/$A001 control memory mapping,
// $C000/$C001/$E000/$E001 the scanline counter.
type MMC3 struct {
	*banks

	bankSelect    uint8
	registers     [8]uint8
	mirror        uint8
	prgRAMProtect uint8

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool
}

// newMMC3 creates a new MMC3 board
func newMMC3(b *banks) *MMC3 {
	m := &MMC3{banks: b, prgRAMProtect: 0x80}
	if b.header.Mirroring == MirrorHorizontal {
		m.mirror = 1
	}
	return m
}

// Bank select ($8000-$9FFE, even)
//
// 7  bit  0
// ---- ----
// CPMx xRRR
// |||   |||
// |||   +++- Bank register to update on next write to Bank Data
// |+-------- PRG ROM bank mode (0: $8000 swappable, $C000 fixed to second-last;
// |                             1: $C000 swappable, $8000 fixed to second-last)
// +--------- CHR A12 inversion
func (m *MMC3) writeRegister(address uint16, value uint8) {
	even := address&1 == 0
	switch {
	case address < 0xA000 && even:
		m.bankSelect = value
	case address < 0xA000:
		m.registers[m.bankSelect&0x07] = value
	case address < 0xC000 && even:
		m.mirror = value & 0x01
	case address < 0xC000:
		m.prgRAMProtect = value
	case address < 0xE000 && even:
		m.irqLatch = value
	case address < 0xE000:
		// Reload happens on the next scanline
		m.irqCounter = 0
		m.irqReload = true
	case even:
		// Disable and acknowledge
		m.irqEnabled = false
		m.irqPending = false
	default:
		m.irqEnabled = true
	}
}

func (m *MMC3) prgPage(address uint16) memory.Page {
	count := pages(m.prgROM, memory.Size8K)
	r6 := memory.Number(int(m.registers[6]&0x3F) % count)
	r7 := memory.Number(int(m.registers[7]&0x3F) % count)
	secondLast := memory.FromEnd(1)

	swap := m.bankSelect&0x40 != 0
	switch (address - 0x8000) / 0x2000 {
	case 0:
		if swap {
			return secondLast
		}
		return r6
	case 1:
		return r7
	case 2:
		if swap {
			return r6
		}
		return secondLast
	default:
		return memory.Last
	}
}

func (m *MMC3) ReadPRG(address uint16) (uint8, error) {
	switch {
	case address >= 0x8000:
		return m.prgROM.Read(m.prgPage(address), memory.Size8K, address&0x1FFF)
	case address >= 0x6000:
		if m.prgRAMProtect&0x80 == 0 {
			return 0, nil
		}
		return m.readPRGRAM(address)
	}
	return 0, unmappedPRG(address)
}

func (m *MMC3) WritePRG(address uint16, value uint8) error {
	switch {
	case address >= 0x8000:
		m.writeRegister(address, value)
		return nil
	case address >= 0x6000:
		if m.prgRAMProtect&0xC0 != 0x80 {
			return nil
		}
		return m.writePRGRAM(address, value)
	}
	return unmappedPRG(address)
}

// chrPage resolves the 1 KB CHR page for address. R0 and R1 select 2 KB
// pairs, R2-R5 single 1 KB pages.
func (m *MMC3) chrPage(address uint16) memory.Page {
	slot := int(address / 0x400)
	if m.bankSelect&0x80 != 0 {
		slot ^= 4
	}

	var bank int
	switch slot {
	case 0, 1:
		bank = int(m.registers[0]&0xFE) | slot
	case 2, 3:
		bank = int(m.registers[1]&0xFE) | (slot - 2)
	default:
		bank = int(m.registers[slot-2])
	}
	return memory.Number(bank % pages(m.chr(), memory.Size1K))
}

func (m *MMC3) ReadCHR(address uint16) (uint8, error) {
	if address >= 0x2000 {
		return 0, unmappedCHR(address)
	}
	return m.chr().Read(m.chrPage(address), memory.Size1K, address&0x03FF)
}

func (m *MMC3) WriteCHR(address uint16, value uint8) error {
	if address >= 0x2000 {
		return unmappedCHR(address)
	}
	if !m.chrWritable() {
		return nil
	}
	return m.chrRAM.Write(m.chrPage(address), memory.Size1K, address&0x03FF, value)
}

// Mirroring follows $A000 unless the board is wired for four screens
func (m *MMC3) Mirroring() Mirroring {
	if m.header.Mirroring == MirrorNone {
		return MirrorNone
	}
	if m.mirror == 0 {
		return MirrorVertical
	}
	return MirrorHorizontal
}

// IRQFlag stays set until $E000 is written
func (m *MMC3) IRQFlag() bool {
	return m.irqPending
}

// SignalScanline clocks the IRQ counter once per rendered scanline
func (m *MMC3) SignalScanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}
