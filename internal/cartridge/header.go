package cartridge

import (
	"errors"
	"fmt"
)

// ErrMalformedHeader is returned when an image is not a usable iNES file.
var ErrMalformedHeader = errors.New("malformed cartridge header")

const (
	headerSize  = 16
	trainerSize = 512

	prgROMPageSize = 0x4000
	prgRAMPageSize = 0x2000
	chrROMPageSize = 0x2000
	chrRAMPageSize = 0x2000
)

var inesMagic = [4]uint8{'N', 'E', 'S', 0x1A}

// Header holds the static metadata decoded from an iNES header
type Header struct {
	MapperID    uint8
	Mirroring   Mirroring
	PRGROMPages int // 16KB units
	PRGRAMPages int // 8KB units, never zero
	CHRROMPages int // 8KB units, zero means CHR RAM
	Battery     bool
	Trainer     bool
}

// ParseHeader decodes the first 16 bytes of an iNES image.
func ParseHeader(data []uint8) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: need %d header bytes, got %d", ErrMalformedHeader, headerSize, len(data))
	}
	if [4]uint8(data[0:4]) != inesMagic {
		return Header{}, fmt.Errorf("%w: bad magic % X", ErrMalformedHeader, data[0:4])
	}

	flags6, flags7 := data[6], data[7]
	h := Header{
		MapperID:    (flags6 >> 4) | (flags7 & 0xF0),
		PRGROMPages: int(data[4]),
		PRGRAMPages: int(data[8]),
		CHRROMPages: int(data[5]),
		Battery:     flags6&0x02 != 0,
		Trainer:     flags6&0x04 != 0,
	}
	if h.PRGRAMPages == 0 {
		h.PRGRAMPages = 1
	}

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorNone
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	if h.PRGROMPages == 0 {
		return Header{}, fmt.Errorf("%w: PRG ROM size cannot be zero", ErrMalformedHeader)
	}
	if h.MapperID == 3 && h.CHRROMPages == 0 {
		return Header{}, fmt.Errorf("%w: CNROM requires CHR ROM", ErrMalformedHeader)
	}
	return h, nil
}

// PRGROMOffset is where program ROM starts in the image
func (h Header) PRGROMOffset() int {
	if h.Trainer {
		return headerSize + trainerSize
	}
	return headerSize
}

func (h Header) PRGROMBytes() int { return h.PRGROMPages * prgROMPageSize }
func (h Header) PRGRAMBytes() int { return h.PRGRAMPages * prgRAMPageSize }
func (h Header) CHRROMBytes() int { return h.CHRROMPages * chrROMPageSize }

// CHRRAMBytes is one page when the cartridge carries no CHR ROM.
func (h Header) CHRRAMBytes() int {
	if h.CHRROMPages == 0 {
		return chrRAMPageSize
	}
	return 0
}

// CHRROMOffset is where character ROM starts in the image
func (h Header) CHRROMOffset() int {
	return h.PRGROMOffset() + h.PRGROMBytes()
}

// ImageSize is the minimum image length the header describes
func (h Header) ImageSize() int {
	return h.CHRROMOffset() + h.CHRROMBytes()
}

func (h Header) String() string {
	return fmt.Sprintf("mapper %d, %s mirroring, PRG %dx16KB, CHR %dx8KB, PRG RAM %dx8KB",
		h.MapperID, h.Mirroring, h.PRGROMPages, h.CHRROMPages, h.PRGRAMPages)
}
