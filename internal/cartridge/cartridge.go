// Package cartridge implements iNES loading and the bank-switching mappers
// that translate CPU and PPU addresses into cartridge storage.
package cartridge

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"nescore/internal/memory"
)

var (
	// ErrUnmappedAddress is returned for an address outside a mapper's
	// program (0x6000-0xFFFF) or character (0x0000-0x1FFF) window.
	ErrUnmappedAddress = errors.New("unmapped cartridge address")
	// ErrUnsupportedMapper is returned when the header names a mapper this
	// package does not implement.
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// UnmappedAddressError carries the offending address and space
type UnmappedAddressError struct {
	Space   string
	Address uint16
}

func (e *UnmappedAddressError) Error() string {
	return fmt.Sprintf("%s address $%04X is outside the cartridge window", e.Space, e.Address)
}

func (e *UnmappedAddressError) Unwrap() error {
	return ErrUnmappedAddress
}

func unmappedPRG(address uint16) error {
	return &UnmappedAddressError{Space: "PRG", Address: address}
}

func unmappedCHR(address uint16) error {
	return &UnmappedAddressError{Space: "CHR", Address: address}
}

// Mirroring represents nametable mirroring mode
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	// MirrorNone maps each logical nametable to its own storage (four-screen)
	MirrorNone
	MirrorSingleScreen0
	MirrorSingleScreen1
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorNone:
		return "four-screen"
	case MirrorSingleScreen0:
		return "single-screen lower"
	case MirrorSingleScreen1:
		return "single-screen upper"
	}
	return fmt.Sprintf("Mirroring(%d)", uint8(m))
}

// Mapper is the capability set every cartridge board provides.
type Mapper interface {
	ReadPRG(address uint16) (uint8, error)
	WritePRG(address uint16, value uint8) error
	ReadCHR(address uint16) (uint8, error)
	WriteCHR(address uint16, value uint8) error
	Mirroring() Mirroring
	IRQFlag() bool
	SignalScanline()
}

var (
	_ Mapper = (*NROM)(nil)
	_ Mapper = (*UxROM)(nil)
	_ Mapper = (*CNROM)(nil)
	_ Mapper = (*MMC1)(nil)
	_ Mapper = (*MMC3)(nil)
	_ Mapper = (*Cartridge)(nil)
)

// banks holds the four buffers a board is built from
type banks struct {
	header Header
	prgROM *memory.PagedBuffer
	prgRAM *memory.PagedBuffer
	chrROM *memory.PagedBuffer
	chrRAM *memory.PagedBuffer
}

func newBanks(h Header, prg, chr []uint8) *banks {
	return &banks{
		header: h,
		prgROM: memory.NewPagedBuffer(prg),
		prgRAM: memory.NewZeroedBuffer(h.PRGRAMBytes()),
		chrROM: memory.NewPagedBuffer(chr),
		chrRAM: memory.NewZeroedBuffer(h.CHRRAMBytes()),
	}
}

// chr is CHR RAM when the cartridge has no CHR ROM
func (b *banks) chr() *memory.PagedBuffer {
	if b.header.CHRROMPages == 0 {
		return b.chrRAM
	}
	return b.chrROM
}

func (b *banks) chrWritable() bool {
	return b.header.CHRROMPages == 0
}

func (b *banks) readPRGRAM(address uint16) (uint8, error) {
	return b.prgRAM.Read(memory.First, memory.Size8K, address-0x6000)
}

func (b *banks) writePRGRAM(address uint16, value uint8) error {
	return b.prgRAM.Write(memory.First, memory.Size8K, address-0x6000, value)
}

func (b *banks) readFixedCHR(address uint16) (uint8, error) {
	if address >= 0x2000 {
		return 0, unmappedCHR(address)
	}
	return b.chr().Read(memory.First, memory.Size8K, address)
}

func (b *banks) writeFixedCHR(address uint16, value uint8) error {
	if address >= 0x2000 {
		return unmappedCHR(address)
	}
	if !b.chrWritable() {
		return nil
	}
	return b.chrRAM.Write(memory.First, memory.Size8K, address, value)
}

// pages returns how many pages of size the buffer holds, or 1 when it does
// not divide evenly so that the access itself reports the error.
func pages(b *memory.PagedBuffer, size memory.PageSize) int {
	n, err := b.PageCount(size)
	if err != nil || n == 0 {
		return 1
	}
	return n
}

type mapperKind uint8

const (
	kindNROM mapperKind = iota
	kindUxROM
	kindCNROM
	kindMMC1
	kindMMC3
)

// Cartridge represents a NES cartridge. It dispatches every access to the
// board selected by the header's mapper id.
type Cartridge struct {
	header Header
	kind   mapperKind

	nrom  *NROM
	uxrom *UxROM
	cnrom *CNROM
	mmc1  *MMC1
	mmc3  *MMC3
}

// New builds a cartridge from a parsed header and its ROM contents.
func New(h Header, prg, chr []uint8) (*Cartridge, error) {
	if len(prg) == 0 {
		return nil, fmt.Errorf("%w: empty PRG ROM", ErrMalformedHeader)
	}
	b := newBanks(h, prg, chr)
	c := &Cartridge{header: h}

	switch h.MapperID {
	case 0:
		c.kind, c.nrom = kindNROM, newNROM(b)
	case 1:
		c.kind, c.mmc1 = kindMMC1, newMMC1(b)
	case 2:
		c.kind, c.uxrom = kindUxROM, newUxROM(b)
	case 3:
		c.kind, c.cnrom = kindCNROM, newCNROM(b)
	case 4:
		c.kind, c.mmc3 = kindMMC3, newMMC3(b)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, h.MapperID)
	}
	return c, nil
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cartridge image: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a complete iNES image held in memory
func LoadFromBytes(data []uint8) (*Cartridge, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < h.ImageSize() {
		return nil, fmt.Errorf("%w: image is %d bytes, header describes %d", ErrMalformedHeader, len(data), h.ImageSize())
	}

	prg := make([]uint8, h.PRGROMBytes())
	copy(prg, data[h.PRGROMOffset():])
	chr := make([]uint8, h.CHRROMBytes())
	copy(chr, data[h.CHRROMOffset():])

	cart, err := New(h, prg, chr)
	if err != nil {
		return nil, err
	}
	log.Printf("[CART] Loaded %s", h)
	return cart, nil
}

// Header returns the parsed iNES header
func (c *Cartridge) Header() Header {
	return c.header
}

// MapperID returns the iNES mapper number
func (c *Cartridge) MapperID() uint8 {
	return c.header.MapperID
}

// Mapper returns the active board
func (c *Cartridge) Mapper() Mapper {
	switch c.kind {
	case kindUxROM:
		return c.uxrom
	case kindCNROM:
		return c.cnrom
	case kindMMC1:
		return c.mmc1
	case kindMMC3:
		return c.mmc3
	default:
		return c.nrom
	}
}

func (c *Cartridge) storage() *banks {
	switch c.kind {
	case kindUxROM:
		return c.uxrom.banks
	case kindCNROM:
		return c.cnrom.banks
	case kindMMC1:
		return c.mmc1.banks
	case kindMMC3:
		return c.mmc3.banks
	default:
		return c.nrom.banks
	}
}

// ReadPRG reads from PRG ROM/RAM
func (c *Cartridge) ReadPRG(address uint16) (uint8, error) {
	switch c.kind {
	case kindUxROM:
		return c.uxrom.ReadPRG(address)
	case kindCNROM:
		return c.cnrom.ReadPRG(address)
	case kindMMC1:
		return c.mmc1.ReadPRG(address)
	case kindMMC3:
		return c.mmc3.ReadPRG(address)
	default:
		return c.nrom.ReadPRG(address)
	}
}

// WritePRG writes to PRG RAM or the mapper registers
func (c *Cartridge) WritePRG(address uint16, value uint8) error {
	switch c.kind {
	case kindUxROM:
		return c.uxrom.WritePRG(address, value)
	case kindCNROM:
		return c.cnrom.WritePRG(address, value)
	case kindMMC1:
		return c.mmc1.WritePRG(address, value)
	case kindMMC3:
		return c.mmc3.WritePRG(address, value)
	default:
		return c.nrom.WritePRG(address, value)
	}
}

// ReadCHR reads from CHR ROM/RAM
func (c *Cartridge) ReadCHR(address uint16) (uint8, error) {
	switch c.kind {
	case kindUxROM:
		return c.uxrom.ReadCHR(address)
	case kindCNROM:
		return c.cnrom.ReadCHR(address)
	case kindMMC1:
		return c.mmc1.ReadCHR(address)
	case kindMMC3:
		return c.mmc3.ReadCHR(address)
	default:
		return c.nrom.ReadCHR(address)
	}
}

// WriteCHR writes to CHR RAM
func (c *Cartridge) WriteCHR(address uint16, value uint8) error {
	switch c.kind {
	case kindUxROM:
		return c.uxrom.WriteCHR(address, value)
	case kindCNROM:
		return c.cnrom.WriteCHR(address, value)
	case kindMMC1:
		return c.mmc1.WriteCHR(address, value)
	case kindMMC3:
		return c.mmc3.WriteCHR(address, value)
	default:
		return c.nrom.WriteCHR(address, value)
	}
}

// Mirroring returns the current nametable arrangement
func (c *Cartridge) Mirroring() Mirroring {
	switch c.kind {
	case kindMMC1:
		return c.mmc1.Mirroring()
	case kindMMC3:
		return c.mmc3.Mirroring()
	default:
		return c.header.Mirroring
	}
}

// IRQFlag reports whether the board is asserting its interrupt line
func (c *Cartridge) IRQFlag() bool {
	if c.kind == kindMMC3 {
		return c.mmc3.IRQFlag()
	}
	return false
}

// SignalScanline notifies the board that the PPU finished a scanline
func (c *Cartridge) SignalScanline() {
	if c.kind == kindMMC3 {
		c.mmc3.SignalScanline()
	}
}

// HasBattery reports whether PRG RAM survives power off
func (c *Cartridge) HasBattery() bool {
	return c.header.Battery
}

// SaveRAM returns a copy of PRG RAM
func (c *Cartridge) SaveRAM() []uint8 {
	ram := c.storage().prgRAM.Bytes()
	out := make([]uint8, len(ram))
	copy(out, ram)
	return out
}

// LoadRAM restores PRG RAM from a previous SaveRAM
func (c *Cartridge) LoadRAM(data []uint8) error {
	ram := c.storage().prgRAM.Bytes()
	if len(data) != len(ram) {
		return fmt.Errorf("save RAM is %d bytes, cartridge has %d", len(data), len(ram))
	}
	copy(ram, data)
	return nil
}
