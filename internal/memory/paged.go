package memory

import (
	"errors"
	"fmt"
)

// ErrAddressOutOfRange is returned when a page selection does not resolve to
// a byte inside the buffer.
var ErrAddressOutOfRange = errors.New("address out of range")

// PageSize is the window size used to slice a PagedBuffer
type PageSize int

const (
	Size1K  PageSize = 0x0400
	Size4K  PageSize = 0x1000
	Size8K  PageSize = 0x2000
	Size16K PageSize = 0x4000
)

func (s PageSize) String() string {
	return fmt.Sprintf("%dKiB", int(s)/1024)
}

type pageKind uint8

const (
	pageNumber pageKind = iota
	pageFirst
	pageLast
	pageFromEnd
)

// Page selects one page of a PagedBuffer. The zero value selects page 0.
type Page struct {
	kind pageKind
	n    int
}

var (
	// First selects page 0
	First = Page{kind: pageFirst}
	// Last selects the final page for the size in use
	Last = Page{kind: pageLast}
)

// Number selects page n counted from the start of the buffer.
func Number(n int) Page {
	return Page{kind: pageNumber, n: n}
}

// FromEnd selects page n counted back from the last page; FromEnd(0) is Last.
func FromEnd(n int) Page {
	return Page{kind: pageFromEnd, n: n}
}

func (p Page) String() string {
	switch p.kind {
	case pageFirst:
		return "first"
	case pageLast:
		return "last"
	case pageFromEnd:
		return fmt.Sprintf("end-%d", p.n)
	default:
		return fmt.Sprintf("#%d", p.n)
	}
}

// AddressError describes a failed page resolution.
type AddressError struct {
	Page   Page
	Size   PageSize
	Offset uint16
	Length int
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("page %s/%s offset $%04X in %d-byte buffer: %s",
		e.Page, e.Size, e.Offset, e.Length, e.Reason)
}

func (e *AddressError) Unwrap() error {
	return ErrAddressOutOfRange
}

// PagedBuffer is a fixed-size byte store addressed as pages of a chosen size.
// The buffer length is not checked against any page size until it is accessed.
type PagedBuffer struct {
	data []uint8
}

// NewPagedBuffer wraps data without copying it.
func NewPagedBuffer(data []uint8) *PagedBuffer {
	return &PagedBuffer{data: data}
}

// NewZeroedBuffer allocates a zero-filled buffer of n bytes.
func NewZeroedBuffer(n int) *PagedBuffer {
	return &PagedBuffer{data: make([]uint8, n)}
}

// Len returns the buffer length in bytes
func (b *PagedBuffer) Len() int {
	return len(b.data)
}

// Bytes exposes the backing storage (battery saves, debug views).
func (b *PagedBuffer) Bytes() []uint8 {
	return b.data
}

// PageCount returns how many pages of the given size the buffer holds.
func (b *PagedBuffer) PageCount(size PageSize) (int, error) {
	if size <= 0 || len(b.data)%int(size) != 0 {
		return 0, &AddressError{Size: size, Length: len(b.data), Reason: "length is not a multiple of the page size"}
	}
	return len(b.data) / int(size), nil
}

// Read returns the byte at offset within the selected page.
func (b *PagedBuffer) Read(page Page, size PageSize, offset uint16) (uint8, error) {
	i, err := b.index(page, size, offset)
	if err != nil {
		return 0, err
	}
	return b.data[i], nil
}

// Write stores value at offset within the selected page.
func (b *PagedBuffer) Write(page Page, size PageSize, offset uint16, value uint8) error {
	i, err := b.index(page, size, offset)
	if err != nil {
		return err
	}
	b.data[i] = value
	return nil
}

func (b *PagedBuffer) index(page Page, size PageSize, offset uint16) (int, error) {
	count, err := b.PageCount(size)
	if err != nil {
		e := err.(*AddressError)
		e.Page, e.Offset = page, offset
		return 0, e
	}
	if int(offset) >= int(size) {
		return 0, &AddressError{Page: page, Size: size, Offset: offset, Length: len(b.data), Reason: "offset exceeds page size"}
	}

	n := page.n
	switch page.kind {
	case pageFirst:
		n = 0
	case pageLast:
		n = count - 1
	case pageFromEnd:
		n = count - 1 - page.n
	}
	if n < 0 || n >= count {
		return 0, &AddressError{Page: page, Size: size, Offset: offset, Length: len(b.data), Reason: "page index out of range"}
	}

	return n*int(size) + int(offset), nil
}
