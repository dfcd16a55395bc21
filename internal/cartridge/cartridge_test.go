package cartridge

import (
	"bytes"
	"errors"
	"testing"

	"nescore/internal/memory"
)

// mustBuild builds a cartridge or stops the test
func mustBuild(t *testing.T, b *TestROMBuilder) *Cartridge {
	t.Helper()
	cart, err := b.BuildCartridge()
	if err != nil {
		t.Fatalf("BuildCartridge failed: %v", err)
	}
	return cart
}

func readPRG(t *testing.T, m Mapper, address uint16) uint8 {
	t.Helper()
	v, err := m.ReadPRG(address)
	if err != nil {
		t.Fatalf("ReadPRG($%04X) failed: %v", address, err)
	}
	return v
}

func writePRG(t *testing.T, m Mapper, address uint16, value uint8) {
	t.Helper()
	if err := m.WritePRG(address, value); err != nil {
		t.Fatalf("WritePRG($%04X, $%02X) failed: %v", address, value, err)
	}
}

func readCHR(t *testing.T, m Mapper, address uint16) uint8 {
	t.Helper()
	v, err := m.ReadCHR(address)
	if err != nil {
		t.Fatalf("ReadCHR($%04X) failed: %v", address, err)
	}
	return v
}

func writeCHR(t *testing.T, m Mapper, address uint16, value uint8) {
	t.Helper()
	if err := m.WriteCHR(address, value); err != nil {
		t.Fatalf("WriteCHR($%04X, $%02X) failed: %v", address, value, err)
	}
}

// bank16 tags every byte with its 16KB page number
func bank16(offset int) uint8 { return uint8(offset / 0x4000) }

// bank8 tags every byte with its 8KB page number
func bank8(offset int) uint8 { return uint8(offset / 0x2000) }

// bank1 tags every byte with its 1KB page number
func bank1(offset int) uint8 { return uint8(offset / 0x400) }

func TestNew_UnsupportedMapper(t *testing.T) {
	_, err := NewTestROMBuilder().WithMapper(7).BuildCartridge()
	if !errors.Is(err, ErrUnsupportedMapper) {
		t.Fatalf("Expected ErrUnsupportedMapper, got %v", err)
	}
}

func TestCartridge_DispatchesByMapperID(t *testing.T) {
	tests := []struct {
		id   uint8
		want string
	}{
		{0, "*cartridge.NROM"},
		{1, "*cartridge.MMC1"},
		{2, "*cartridge.UxROM"},
		{3, "*cartridge.CNROM"},
		{4, "*cartridge.MMC3"},
	}

	for _, tt := range tests {
		cart := mustBuild(t, NewTestROMBuilder().WithMapper(tt.id).WithPRGSize(2))
		var got string
		switch cart.Mapper().(type) {
		case *NROM:
			got = "*cartridge.NROM"
		case *MMC1:
			got = "*cartridge.MMC1"
		case *UxROM:
			got = "*cartridge.UxROM"
		case *CNROM:
			got = "*cartridge.CNROM"
		case *MMC3:
			got = "*cartridge.MMC3"
		}
		if got != tt.want {
			t.Errorf("mapper %d: Expected %s, got %s", tt.id, tt.want, got)
		}
		if cart.MapperID() != tt.id {
			t.Errorf("mapper %d: MapperID() = %d", tt.id, cart.MapperID())
		}
	}
}

func TestCartridge_UnmappedAddresses(t *testing.T) {
	for id := uint8(0); id <= 4; id++ {
		cart := mustBuild(t, NewTestROMBuilder().WithMapper(id).WithPRGSize(2))

		if _, err := cart.ReadPRG(0x5FFF); !errors.Is(err, ErrUnmappedAddress) {
			t.Errorf("mapper %d: ReadPRG($5FFF) expected ErrUnmappedAddress, got %v", id, err)
		}
		if err := cart.WritePRG(0x4020, 0); !errors.Is(err, ErrUnmappedAddress) {
			t.Errorf("mapper %d: WritePRG($4020) expected ErrUnmappedAddress, got %v", id, err)
		}
		if _, err := cart.ReadCHR(0x2000); !errors.Is(err, ErrUnmappedAddress) {
			t.Errorf("mapper %d: ReadCHR($2000) expected ErrUnmappedAddress, got %v", id, err)
		}
		if err := cart.WriteCHR(0x3F00, 0); !errors.Is(err, ErrUnmappedAddress) {
			t.Errorf("mapper %d: WriteCHR($3F00) expected ErrUnmappedAddress, got %v", id, err)
		}

		var ue *UnmappedAddressError
		_, err := cart.ReadCHR(0x2345)
		if !errors.As(err, &ue) || ue.Address != 0x2345 || ue.Space != "CHR" {
			t.Errorf("mapper %d: Expected UnmappedAddressError for CHR $2345, got %v", id, err)
		}
	}
}

func TestCartridge_PRGRAMAllMappers(t *testing.T) {
	for id := uint8(0); id <= 4; id++ {
		cart := mustBuild(t, NewTestROMBuilder().WithMapper(id).WithPRGSize(2))
		writePRG(t, cart, 0x6000, 0x11)
		writePRG(t, cart, 0x7FFF, 0x22)
		if v := readPRG(t, cart, 0x6000); v != 0x11 {
			t.Errorf("mapper %d: Expected $6000=0x11, got 0x%02X", id, v)
		}
		if v := readPRG(t, cart, 0x7FFF); v != 0x22 {
			t.Errorf("mapper %d: Expected $7FFF=0x22, got 0x%02X", id, v)
		}
	}
}

func TestCartridge_SaveAndLoadRAM(t *testing.T) {
	cart := mustBuild(t, NewTestROMBuilder().WithBattery())
	if !cart.HasBattery() {
		t.Fatal("Expected battery flag from header")
	}
	writePRG(t, cart, 0x6010, 0xAB)

	saved := cart.SaveRAM()
	if len(saved) != 0x2000 || saved[0x10] != 0xAB {
		t.Fatalf("SaveRAM returned %d bytes, [0x10]=0x%02X", len(saved), saved[0x10])
	}

	other := mustBuild(t, NewTestROMBuilder().WithBattery())
	if err := other.LoadRAM(saved); err != nil {
		t.Fatalf("LoadRAM failed: %v", err)
	}
	if v := readPRG(t, other, 0x6010); v != 0xAB {
		t.Errorf("Expected restored RAM 0xAB, got 0x%02X", v)
	}
	if err := other.LoadRAM(saved[:10]); err == nil {
		t.Error("Expected size mismatch error")
	}
}

func TestLoadFromReader(t *testing.T) {
	rom, err := NewTestROMBuilder().WithPRGSize(2).WithPRGFill(bank16).Build()
	if err != nil {
		t.Fatal(err)
	}
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if v := readPRG(t, cart, 0x8000); v != 0 {
		t.Errorf("Expected page 0 at $8000, got %d", v)
	}
	if v := readPRG(t, cart, 0xC000); v != 1 {
		t.Errorf("Expected page 1 at $C000, got %d", v)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile("does-not-exist.nes"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCartridge_TruncatedPRGBufferReportsAddressError(t *testing.T) {
	h := Header{MapperID: 0, PRGROMPages: 1, PRGRAMPages: 1}
	// 10KB is not a whole number of 16KB pages
	cart, err := New(h, make([]uint8, 10*1024), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := cart.ReadPRG(0x8000); !errors.Is(err, memory.ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
}
