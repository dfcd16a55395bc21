package ppu

import (
	"nescore/internal/cartridge"
)

// CHRBus is the cartridge side of the PPU address space
type CHRBus interface {
	ReadCHR(address uint16) (uint8, error)
	WriteCHR(address uint16, value uint8) error
	Mirroring() cartridge.Mirroring
}

// VideoMemory holds nametable and palette storage and routes pattern table
// addresses ($0000-$1FFF) to the cartridge.
type VideoMemory struct {
	cart CHRBus

	// Two 1KB tables; four-screen boards use all four
	nametables [0x1000]uint8
	palette    [32]uint8

	// One-byte read-ahead used by PPUDATA
	buffer uint8
}

// NewVideoMemory creates video memory backed by cart
func NewVideoMemory(cart CHRBus) *VideoMemory {
	vm := &VideoMemory{cart: cart}
	// Background color positions start black
	for i := 0; i < 32; i += 4 {
		vm.palette[i] = 0x0F
	}
	return vm
}

// SetCartridge swaps the pattern table source
func (vm *VideoMemory) SetCartridge(cart CHRBus) {
	vm.cart = cart
}

// MirrorNametable folds a $2000-$3EFF address into a nametable storage offset.
func MirrorNametable(mode cartridge.Mirroring, address uint16) uint16 {
	address = 0x2000 | (address & 0x0FFF)

	switch mode {
	case cartridge.MirrorHorizontal:
		// $2000/$2400 share table 0, $2800/$2C00 share table 1
		return ((address / 2) & 0x400) + address%0x400
	case cartridge.MirrorVertical:
		// $2000/$2800 share table 0, $2400/$2C00 share table 1
		return address % 0x800
	case cartridge.MirrorSingleScreen0:
		return address % 0x400
	case cartridge.MirrorSingleScreen1:
		return 0x400 + address%0x400
	default:
		return address - 0x2000
	}
}

// MirrorPalette maps a palette address to one of the 32 entries. Sprite
// backdrop entries $10/$14/$18/$1C alias the background ones.
func MirrorPalette(address uint16) uint16 {
	i := address % 32
	if i >= 16 && i%4 == 0 {
		i -= 16
	}
	return i
}

func (vm *VideoMemory) mirroring() cartridge.Mirroring {
	if vm.cart == nil {
		return cartridge.MirrorHorizontal
	}
	return vm.cart.Mirroring()
}

// Read reads from PPU memory space ($0000-$3FFF)
func (vm *VideoMemory) Read(address uint16) (uint8, error) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if vm.cart == nil {
			return 0, nil
		}
		return vm.cart.ReadCHR(address)
	case address < 0x3F00:
		return vm.nametables[MirrorNametable(vm.mirroring(), address)], nil
	default:
		return vm.palette[MirrorPalette(address)], nil
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (vm *VideoMemory) Write(address uint16, value uint8) error {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if vm.cart == nil {
			return nil
		}
		return vm.cart.WriteCHR(address, value)
	case address < 0x3F00:
		vm.nametables[MirrorNametable(vm.mirroring(), address)] = value
	default:
		vm.palette[MirrorPalette(address)] = value
	}
	return nil
}

// BufferedRead implements the PPUDATA read protocol. Below $3F00 it returns
// the previously buffered byte and refills the buffer. Palette reads return
// immediately but still refill the buffer from the nametable underneath.
func (vm *VideoMemory) BufferedRead(address uint16) (uint8, error) {
	address &= 0x3FFF

	if address < 0x3F00 {
		value, err := vm.Read(address)
		if err != nil {
			return 0, err
		}
		previous := vm.buffer
		vm.buffer = value
		return previous, nil
	}

	vm.buffer = vm.nametables[MirrorNametable(vm.mirroring(), address-0x1000)]
	return vm.palette[MirrorPalette(address)], nil
}

// Palette returns a copy of palette RAM
func (vm *VideoMemory) Palette() [32]uint8 {
	return vm.palette
}
