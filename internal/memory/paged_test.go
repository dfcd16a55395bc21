package memory

import (
	"errors"
	"testing"
)

func TestPagedBuffer_Selectors(t *testing.T) {
	data := make([]uint8, 4*0x1000)
	for i := range data {
		data[i] = uint8(i / 0x1000)
	}
	b := NewPagedBuffer(data)

	tests := []struct {
		name string
		page Page
		want uint8
	}{
		{"first", First, 0},
		{"last", Last, 3},
		{"number", Number(2), 2},
		{"from end 0", FromEnd(0), 3},
		{"from end 1", FromEnd(1), 2},
		{"from end 3", FromEnd(3), 0},
	}

	for _, tt := range tests {
		v, err := b.Read(tt.page, Size4K, 0x0FFF)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if v != tt.want {
			t.Errorf("%s: Expected page %d, got %d", tt.name, tt.want, v)
		}
	}
}

func TestPagedBuffer_PageSizes(t *testing.T) {
	b := NewZeroedBuffer(0x8000)
	sizes := []struct {
		size  PageSize
		pages int
	}{
		{Size1K, 32},
		{Size4K, 8},
		{Size8K, 4},
		{Size16K, 2},
	}
	for _, s := range sizes {
		n, err := b.PageCount(s.size)
		if err != nil || n != s.pages {
			t.Errorf("%s: Expected %d pages, got %d (%v)", s.size, s.pages, n, err)
		}
	}

	if err := b.Write(Number(5), Size1K, 0x10, 0xAA); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Read(Number(1), Size4K, 0x410); v != 0xAA {
		t.Errorf("Expected 1KB page 5 to alias 4KB page 1 offset $410, got 0x%02X", v)
	}
}

func TestPagedBuffer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		length int
		page   Page
		size   PageSize
		offset uint16
	}{
		{"offset equals page size", 0x2000, First, Size8K, 0x2000},
		{"page beyond count", 0x4000, Number(2), Size8K, 0},
		{"negative from end", 0x4000, FromEnd(2), Size8K, 0},
		{"empty buffer", 0, Last, Size8K, 0},
	}

	for _, tt := range tests {
		b := NewZeroedBuffer(tt.length)
		if _, err := b.Read(tt.page, tt.size, tt.offset); !errors.Is(err, ErrAddressOutOfRange) {
			t.Errorf("%s: Read expected ErrAddressOutOfRange, got %v", tt.name, err)
		}
		if err := b.Write(tt.page, tt.size, tt.offset, 1); !errors.Is(err, ErrAddressOutOfRange) {
			t.Errorf("%s: Write expected ErrAddressOutOfRange, got %v", tt.name, err)
		}
	}
}

func TestPagedBuffer_MisalignedFailsOnFirstAccess(t *testing.T) {
	// Construction never fails
	b := NewZeroedBuffer(0x3000)

	// 4KB pages divide the buffer
	if _, err := b.Read(Last, Size4K, 0); err != nil {
		t.Errorf("4KB access should succeed, got %v", err)
	}

	_, err := b.Read(First, Size8K, 0)
	if !errors.Is(err, ErrAddressOutOfRange) {
		t.Fatalf("Expected ErrAddressOutOfRange, got %v", err)
	}
	var ae *AddressError
	if !errors.As(err, &ae) {
		t.Fatalf("Expected *AddressError, got %T", err)
	}
	if ae.Size != Size8K || ae.Length != 0x3000 {
		t.Errorf("AddressError carries wrong context: %+v", ae)
	}
}

func TestPagedBuffer_NeverWraps(t *testing.T) {
	b := NewZeroedBuffer(0x4000)
	if err := b.Write(Number(1), Size8K, 0x1FFF, 0x55); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Read(Number(2), Size8K, 0); err == nil {
		t.Error("Expected page 2 of a two-page buffer to fail instead of wrapping")
	}
	if v, _ := b.Read(First, Size8K, 0); v != 0 {
		t.Errorf("Write leaked into page 0: 0x%02X", v)
	}
}
