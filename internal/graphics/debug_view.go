package graphics

import (
	"nescore/internal/ppu"
)

// Debug view layout. No pixels come out of the PPU, so frontends show what
// it would draw from instead.
const (
	patternTop   = 0   // two 128x128 pattern tables side by side
	paletteTop   = 136 // 32 palette entries as 16x16 swatches, two rows
	swatchSize   = 16
	nametableTop = 176 // four nametables, one 2x2 block per tile
	tileBlock    = 2
)

// ComposeDebugView draws the pattern tables, palette RAM and nametable
// tile map of vm into frame.
func ComposeDebugView(vm *ppu.VideoMemory, frame *[FramePixels]uint32) error {
	for i := range frame {
		frame[i] = 0
	}

	palette := vm.Palette()
	if err := drawPatternTables(vm, palette, frame); err != nil {
		return err
	}
	drawPalette(palette, frame)
	return drawNametables(vm, frame)
}

func drawPatternTables(vm *ppu.VideoMemory, palette [32]uint8, frame *[FramePixels]uint32) error {
	for table := 0; table < 2; table++ {
		for tile := 0; tile < 256; tile++ {
			base := uint16(table*0x1000 + tile*16)
			originX := table*128 + (tile%16)*8
			originY := patternTop + (tile/16)*8

			for row := 0; row < 8; row++ {
				lo, err := vm.Read(base + uint16(row))
				if err != nil {
					return err
				}
				hi, err := vm.Read(base + uint16(row) + 8)
				if err != nil {
					return err
				}
				for col := 0; col < 8; col++ {
					shift := 7 - col
					pixel := (lo>>shift)&1 | ((hi>>shift)&1)<<1
					frame[(originY+row)*FrameWidth+originX+col] = ppu.NESColorToRGB(palette[pixel])
				}
			}
		}
	}
	return nil
}

func drawPalette(palette [32]uint8, frame *[FramePixels]uint32) {
	for i, entry := range palette {
		color := ppu.NESColorToRGB(entry)
		originX := (i % 16) * swatchSize
		originY := paletteTop + (i/16)*swatchSize
		for y := 0; y < swatchSize; y++ {
			for x := 0; x < swatchSize; x++ {
				frame[(originY+y)*FrameWidth+originX+x] = color
			}
		}
	}
}

func drawNametables(vm *ppu.VideoMemory, frame *[FramePixels]uint32) error {
	for table := 0; table < 4; table++ {
		base := 0x2000 + uint16(table)*0x400
		for tile := 0; tile < 32*30; tile++ {
			id, err := vm.Read(base + uint16(tile))
			if err != nil {
				return err
			}
			gray := uint32(id)
			color := gray<<16 | gray<<8 | gray

			originX := table*64 + (tile%32)*tileBlock
			originY := nametableTop + (tile/32)*tileBlock
			for y := 0; y < tileBlock; y++ {
				for x := 0; x < tileBlock; x++ {
					frame[(originY+y)*FrameWidth+originX+x] = color
				}
			}
		}
	}
	return nil
}
