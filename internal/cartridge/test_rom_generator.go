package cartridge

import (
	"fmt"
)

// TestROMConfig represents configuration for test ROM generation
type TestROMConfig struct {
	PRGSize      uint8                 // PRG ROM size in 16KB units
	CHRSize      uint8                 // CHR ROM size in 8KB units (0 = CHR RAM)
	PRGRAMSize   uint8                 // PRG RAM size in 8KB units (0 = one page)
	MapperID     uint8                 // Mapper number
	Mirroring    Mirroring             // Nametable mirroring
	HasBattery   bool                  // Battery-backed PRG RAM
	HasTrainer   bool                  // 512-byte trainer
	Instructions []uint8               // Program placed at the start of PRG ROM ($8000)
	InitialData  map[int]uint8         // Bytes at PRG ROM offsets
	PRGFill      func(offset int) uint8 // Background pattern for PRG ROM
	CHRFill      func(offset int) uint8 // Background pattern for CHR ROM
	ResetVector  uint16
	IRQVector    uint16
	NMIVector    uint16
}

// TestROMBuilder provides a fluent interface for building test ROMs
type TestROMBuilder struct {
	config TestROMConfig
}

// NewTestROMBuilder creates a builder for a 16KB PRG / 8KB CHR NROM image
// whose vectors all point at $8000.
func NewTestROMBuilder() *TestROMBuilder {
	return &TestROMBuilder{
		config: TestROMConfig{
			PRGSize:     1,
			CHRSize:     1,
			Mirroring:   MirrorHorizontal,
			InitialData: make(map[int]uint8),
			ResetVector: 0x8000,
			IRQVector:   0x8000,
			NMIVector:   0x8000,
		},
	}
}

func (b *TestROMBuilder) WithPRGSize(size uint8) *TestROMBuilder {
	b.config.PRGSize = size
	return b
}

func (b *TestROMBuilder) WithCHRSize(size uint8) *TestROMBuilder {
	b.config.CHRSize = size
	return b
}

// WithCHRRAM configures the ROM to use CHR RAM instead of CHR ROM
func (b *TestROMBuilder) WithCHRRAM() *TestROMBuilder {
	b.config.CHRSize = 0
	return b
}

func (b *TestROMBuilder) WithPRGRAMSize(size uint8) *TestROMBuilder {
	b.config.PRGRAMSize = size
	return b
}

func (b *TestROMBuilder) WithMapper(mapperID uint8) *TestROMBuilder {
	b.config.MapperID = mapperID
	return b
}

func (b *TestROMBuilder) WithMirroring(mirroring Mirroring) *TestROMBuilder {
	b.config.Mirroring = mirroring
	return b
}

func (b *TestROMBuilder) WithBattery() *TestROMBuilder {
	b.config.HasBattery = true
	return b
}

func (b *TestROMBuilder) WithTrainer() *TestROMBuilder {
	b.config.HasTrainer = true
	return b
}

// WithInstructions places a program at the start of PRG ROM
func (b *TestROMBuilder) WithInstructions(instructions []uint8) *TestROMBuilder {
	b.config.Instructions = append([]uint8(nil), instructions...)
	return b
}

// WithData sets bytes starting at a PRG ROM offset
func (b *TestROMBuilder) WithData(offset int, data []uint8) *TestROMBuilder {
	for i, value := range data {
		b.config.InitialData[offset+i] = value
	}
	return b
}

// WithPRGFill fills PRG ROM before the program, data and vectors are placed
func (b *TestROMBuilder) WithPRGFill(fill func(offset int) uint8) *TestROMBuilder {
	b.config.PRGFill = fill
	return b
}

// WithCHRFill fills CHR ROM
func (b *TestROMBuilder) WithCHRFill(fill func(offset int) uint8) *TestROMBuilder {
	b.config.CHRFill = fill
	return b
}

func (b *TestROMBuilder) WithResetVector(address uint16) *TestROMBuilder {
	b.config.ResetVector = address
	return b
}

func (b *TestROMBuilder) WithIRQVector(address uint16) *TestROMBuilder {
	b.config.IRQVector = address
	return b
}

func (b *TestROMBuilder) WithNMIVector(address uint16) *TestROMBuilder {
	b.config.NMIVector = address
	return b
}

// Build generates the ROM data based on the current configuration
func (b *TestROMBuilder) Build() ([]byte, error) {
	return GenerateTestROM(b.config)
}

// BuildCartridge generates and loads the ROM as a cartridge
func (b *TestROMBuilder) BuildCartridge() (*Cartridge, error) {
	romData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromBytes(romData)
}

// GenerateTestROM creates an iNES image from config
func GenerateTestROM(config TestROMConfig) ([]byte, error) {
	if config.PRGSize == 0 {
		return nil, fmt.Errorf("PRG ROM size cannot be zero")
	}

	result := createINESHeader(config)
	if config.HasTrainer {
		result = append(result, make([]uint8, trainerSize)...)
	}

	prgROM, err := createPRGROM(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PRG ROM: %w", err)
	}
	result = append(result, prgROM...)

	chrROM := make([]uint8, int(config.CHRSize)*chrROMPageSize)
	if config.CHRFill != nil {
		for i := range chrROM {
			chrROM[i] = config.CHRFill(i)
		}
	}
	return append(result, chrROM...), nil
}

func createINESHeader(config TestROMConfig) []byte {
	header := make([]byte, headerSize)
	copy(header[0:4], inesMagic[:])
	header[4] = config.PRGSize
	header[5] = config.CHRSize

	flags6 := (config.MapperID & 0x0F) << 4
	switch config.Mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorNone:
		flags6 |= 0x08
	}
	if config.HasBattery {
		flags6 |= 0x02
	}
	if config.HasTrainer {
		flags6 |= 0x04
	}
	header[6] = flags6
	header[7] = config.MapperID & 0xF0
	header[8] = config.PRGRAMSize
	return header
}

func createPRGROM(config TestROMConfig) ([]byte, error) {
	size := int(config.PRGSize) * prgROMPageSize
	prgROM := make([]byte, size)

	if config.PRGFill != nil {
		for i := range prgROM {
			prgROM[i] = config.PRGFill(i)
		}
	}
	if len(config.Instructions) > size-6 {
		return nil, fmt.Errorf("instructions too large for PRG ROM")
	}
	copy(prgROM, config.Instructions)

	for offset, value := range config.InitialData {
		if offset < 0 || offset >= size {
			return nil, fmt.Errorf("data offset %d outside %d-byte PRG ROM", offset, size)
		}
		prgROM[offset] = value
	}

	// Vectors live at the end of the last bank
	v := size - 6
	prgROM[v], prgROM[v+1] = uint8(config.NMIVector), uint8(config.NMIVector>>8)
	prgROM[v+2], prgROM[v+3] = uint8(config.ResetVector), uint8(config.ResetVector>>8)
	prgROM[v+4], prgROM[v+5] = uint8(config.IRQVector), uint8(config.IRQVector>>8)

	return prgROM, nil
}
