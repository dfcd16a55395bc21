package debug

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
)

// CPUState is the register file at the time of a snapshot
type CPUState struct {
	PC          uint16
	A, X, Y     uint8
	SP          uint8
	P           uint8
	Cycles      uint64
	IRQAsserted bool
}

// PPUState is the PPU timing position at the time of a snapshot
type PPUState struct {
	Frame    uint64
	Scanline int
	Dot      int
	VBlank   bool
	OAM      [256]uint8
	Palette  [32]uint8
}

// Snapshot is the part of the machine worth drawing as a graph
type Snapshot struct {
	CPU       CPUState
	PPU       PPUState
	Cartridge *cartridge.Header
	Stack     []uint8 // $0100-$01FF above SP
}

// TakeSnapshot copies the inspectable state out of b
func TakeSnapshot(b *bus.Bus) *Snapshot {
	c := b.CPU
	s := &Snapshot{
		CPU: CPUState{
			PC:          c.PC,
			A:           c.A,
			X:           c.X,
			Y:           c.Y,
			SP:          c.SP,
			P:           c.GetStatusByte(),
			Cycles:      b.Cycles(),
			IRQAsserted: b.IRQLine(),
		},
		PPU: PPUState{
			Frame:    b.PPU.FrameCount(),
			Scanline: b.PPU.Scanline(),
			Dot:      b.PPU.Cycle(),
			VBlank:   b.PPU.IsVBlank(),
			OAM:      b.PPU.OAM(),
			Palette:  b.VRAM.Palette(),
		},
	}
	if b.Cartridge != nil {
		h := b.Cartridge.Header()
		s.Cartridge = &h
	}
	for addr := 0x0100 + int(c.SP) + 1; addr <= 0x01FF; addr++ {
		s.Stack = append(s.Stack, b.Memory.Peek(uint16(addr)))
	}
	return s
}

// DumpState writes a Graphviz description of b's state to w
func DumpState(w io.Writer, b *bus.Bus) {
	memviz.Map(w, TakeSnapshot(b))
}
