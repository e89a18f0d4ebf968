// Package elftest builds synthetic ELF images for unit tests.
package elftest

import (
	"encoding/binary"

	"github.com/spf13/afero"
)

// Layout selects where the builder writes each field.
type Layout int

const (
	// Fixed64 writes the 64-bit header with a 1-byte type at 0x10 and
	// entries with the type at 0x04 and flags at 0x30.
	Fixed64 Layout = iota
	// ELF64 writes gABI 64-bit headers and entries.
	ELF64
	// ELF32 writes gABI 32-bit headers and entries.
	ELF32
)

// Segment describes one program header entry.
type Segment struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	Vaddr    uint64
	Paddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

// Image describes an ELF file. Zero-valued geometry fields are filled in
// from the layout: EhSize, PhEntSize, PhNum (len(Segments)) and PhOff
// (right after the header when there are segments).
type Image struct {
	Layout Layout
	Order  binary.ByteOrder

	// Magic overrides the identification bytes when non-nil.
	Magic *[4]byte

	Class     uint8
	Data      uint8
	Version   uint8
	Type      uint16
	Machine   uint16
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16

	Segments []Segment

	// Trailer is appended after the program header table.
	Trailer []byte
}

// Minimal returns a single-segment x86-64 executable: entry 0x400078 and one
// PT_LOAD with flags R+X.
func Minimal() *Image {
	return &Image{
		Layout:  Fixed64,
		Class:   2,
		Data:    1,
		Version: 1,
		Type:    2,
		Machine: 0x3E,
		Entry:   0x400078,
		Segments: []Segment{
			{Type: 1, Flags: 0x5, Offset: 0, Vaddr: 0x400000, Paddr: 0x400000, FileSize: 0x84, MemSize: 0x84, Align: 0x1000},
		},
	}
}

func (img *Image) headerSize() int {
	if img.Layout == ELF32 {
		return 52
	}
	return 64
}

func (img *Image) entrySize() int {
	if img.Layout == ELF32 {
		return 32
	}
	return 56
}

// Resolved returns a copy with the defaulted geometry fields filled in.
func (img *Image) Resolved() Image {
	r := *img
	if r.Order == nil {
		r.Order = binary.LittleEndian
	}
	if r.EhSize == 0 {
		r.EhSize = uint16(img.headerSize())
	}
	if r.PhEntSize == 0 {
		r.PhEntSize = uint16(img.entrySize())
	}
	if r.PhNum == 0 {
		r.PhNum = uint16(len(img.Segments))
	}
	if r.PhOff == 0 && len(img.Segments) > 0 {
		r.PhOff = uint64(img.headerSize())
	}
	return r
}

// Bytes encodes the image. The result is at least 64 bytes long.
func (img *Image) Bytes() []byte {
	r := img.Resolved()
	o := r.Order

	size := int(r.PhOff) + len(r.Segments)*r.entrySize()
	if size < 64 {
		size = 64
	}
	buf := make([]byte, size+len(r.Trailer))

	magic := [4]byte{0x7F, 'E', 'L', 'F'}
	if r.Magic != nil {
		magic = *r.Magic
	}
	copy(buf, magic[:])
	buf[4] = r.Class
	buf[5] = r.Data
	buf[6] = r.Version

	switch r.Layout {
	case ELF32:
		o.PutUint16(buf[0x10:], r.Type)
		o.PutUint16(buf[0x12:], r.Machine)
		o.PutUint32(buf[0x14:], uint32(r.Version))
		o.PutUint32(buf[0x18:], uint32(r.Entry))
		o.PutUint32(buf[0x1C:], uint32(r.PhOff))
		o.PutUint32(buf[0x20:], uint32(r.ShOff))
		o.PutUint16(buf[0x28:], r.EhSize)
		o.PutUint16(buf[0x2A:], r.PhEntSize)
		o.PutUint16(buf[0x2C:], r.PhNum)
		o.PutUint16(buf[0x2E:], r.ShEntSize)
		o.PutUint16(buf[0x30:], r.ShNum)
		o.PutUint16(buf[0x32:], r.ShStrNdx)
	default:
		if r.Layout == Fixed64 {
			buf[0x10] = uint8(r.Type)
		} else {
			o.PutUint16(buf[0x10:], r.Type)
		}
		o.PutUint16(buf[0x12:], r.Machine)
		o.PutUint32(buf[0x14:], uint32(r.Version))
		o.PutUint64(buf[0x18:], r.Entry)
		o.PutUint64(buf[0x20:], r.PhOff)
		o.PutUint64(buf[0x28:], r.ShOff)
		o.PutUint16(buf[0x34:], r.EhSize)
		o.PutUint16(buf[0x36:], r.PhEntSize)
		o.PutUint16(buf[0x38:], r.PhNum)
		o.PutUint16(buf[0x3A:], r.ShEntSize)
		o.PutUint16(buf[0x3C:], r.ShNum)
		o.PutUint16(buf[0x3E:], r.ShStrNdx)
	}

	for i, s := range r.Segments {
		e := buf[int(r.PhOff)+i*r.entrySize():]
		switch r.Layout {
		case Fixed64:
			o.PutUint32(e[0x04:], s.Type)
			o.PutUint64(e[0x08:], s.Offset)
			o.PutUint64(e[0x10:], s.Vaddr)
			o.PutUint64(e[0x18:], s.Paddr)
			o.PutUint64(e[0x20:], s.FileSize)
			o.PutUint64(e[0x28:], s.MemSize)
			o.PutUint32(e[0x30:], s.Flags)
		case ELF64:
			o.PutUint32(e[0x00:], s.Type)
			o.PutUint32(e[0x04:], s.Flags)
			o.PutUint64(e[0x08:], s.Offset)
			o.PutUint64(e[0x10:], s.Vaddr)
			o.PutUint64(e[0x18:], s.Paddr)
			o.PutUint64(e[0x20:], s.FileSize)
			o.PutUint64(e[0x28:], s.MemSize)
			o.PutUint64(e[0x30:], s.Align)
		case ELF32:
			o.PutUint32(e[0x00:], s.Type)
			o.PutUint32(e[0x04:], uint32(s.Offset))
			o.PutUint32(e[0x08:], uint32(s.Vaddr))
			o.PutUint32(e[0x0C:], uint32(s.Paddr))
			o.PutUint32(e[0x10:], uint32(s.FileSize))
			o.PutUint32(e[0x14:], uint32(s.MemSize))
			o.PutUint32(e[0x18:], s.Flags)
			o.PutUint32(e[0x1C:], uint32(s.Align))
		}
	}

	copy(buf[size:], r.Trailer)
	return buf
}

// WriteFile writes the encoded image to path on fs.
func (img *Image) WriteFile(fs afero.Fs, path string) error {
	return afero.WriteFile(fs, path, img.Bytes(), 0o755)
}
