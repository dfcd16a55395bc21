// Package memory implements the CPU address map and the paged storage that
// cartridge mappers are built from.
package memory

// Memory represents the CPU-visible memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	// PPU registers (mirrored)
	ppuRegisters PPUInterface

	// Input system
	inputSystem InputInterface

	// Cartridge
	cartridge CartridgeInterface

	// APU and I/O registers are latched but otherwise unconnected
	ioLatch [0x20]uint8

	// DMA callback
	dmaCallback func(uint8)

	// Open bus - last value read from bus (for unmapped areas)
	openBusValue uint8

	// First cartridge fault since the last TakeFault
	fault error
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge program space.
// Errors mean the mapper could not translate the address.
type CartridgeInterface interface {
	ReadPRG(address uint16) (uint8, error)
	WritePRG(address uint16, value uint8) error
}

// New creates a new Memory instance
func New(ppu PPUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetCartridge swaps the cartridge behind 0x6000-0xFFFF
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// SetDMACallback sets the DMA callback function
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// TakeFault returns the first cartridge error recorded since the previous
// call and clears it.
func (m *Memory) TakeFault() error {
	err := m.fault
	m.fault = nil
	return err
}

func (m *Memory) record(err error) {
	if err != nil && m.fault == nil {
		m.fault = err
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		// Internal RAM (mirrored)
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes)
		if m.ppuRegisters != nil {
			value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))
		} else {
			value = m.openBusValue
		}

	case address < 0x4020:
		if (address == 0x4016 || address == 0x4017) && m.inputSystem != nil {
			value = m.inputSystem.Read(address)
		} else {
			// Everything else here is write-only
			value = m.openBusValue
		}

	case address < 0x6000:
		// Cartridge expansion area ($4020-$5FFF) - unmapped, return open bus
		value = m.openBusValue

	default:
		// PRG RAM ($6000-$7FFF) and PRG ROM ($8000-$FFFF)
		if m.cartridge == nil {
			value = m.openBusValue
			break
		}
		v, err := m.cartridge.ReadPRG(address)
		if err != nil {
			m.record(err)
			v = m.openBusValue
		}
		value = v
	}

	// Last value on the bus lingers for the next unmapped read
	m.openBusValue = value
	return value
}

// Peek reads without side effects on open bus or I/O registers. Register
// ranges read back as zero.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]
	case address < 0x6000:
		return 0
	}
	if m.cartridge == nil {
		return 0
	}
	v, err := m.cartridge.ReadPRG(address)
	if err != nil {
		return 0
	}
	return v
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		// Internal RAM (mirrored)
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes)
		if m.ppuRegisters != nil {
			m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)
		}

	case address < 0x4020:
		m.ioLatch[address-0x4000] = value
		switch address {
		case 0x4014:
			// OAM DMA - trigger through callback if available
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			} else {
				m.performOAMDMA(value)
			}
		case 0x4016:
			// Controller strobe register
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		}

	case address < 0x6000:
		// Cartridge expansion area ($4020-$5FFF) - unmapped, ignore writes

	default:
		// PRG RAM and mapper registers
		if m.cartridge != nil {
			m.record(m.cartridge.WritePRG(address, value))
		}
	}
}

// IORegister returns the last value written to $4000-$401F.
func (m *Memory) IORegister(address uint16) uint8 {
	return m.ioLatch[(address-0x4000)&0x1F]
}

// performOAMDMA copies one CPU page into OAM through $2004
func (m *Memory) performOAMDMA(page uint8) {
	baseAddress := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		value := m.Read(baseAddress + i)
		if m.ppuRegisters != nil {
			m.ppuRegisters.WriteRegister(0x2004, value)
		}
	}
}
