package elfhdr

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// LayoutPolicy selects which field offsets are applied to the header and
// program header entries.
type LayoutPolicy string

const (
	// LayoutFixed64 always applies the 64-bit offsets below, whatever the
	// class byte says: a 1-byte type at 0x10, segment type at entry offset
	// 0x04 and flags at 0x30.
	LayoutFixed64 LayoutPolicy = "fixed64"

	// LayoutStandard follows the ELF gABI and picks the 32-bit or 64-bit
	// layout from the class byte.
	LayoutStandard LayoutPolicy = "standard"
)

// ParseLayoutPolicy parses a layout policy name.
func ParseLayoutPolicy(s string) (LayoutPolicy, error) {
	switch LayoutPolicy(strings.ToLower(s)) {
	case LayoutFixed64, "":
		return LayoutFixed64, nil
	case LayoutStandard:
		return LayoutStandard, nil
	default:
		return "", fmt.Errorf("unknown layout %q (valid: fixed64, standard)", s)
	}
}

type headerOffsets struct {
	typ, machine, entry, phoff, shoff                 int
	ehsize, phentsize, phnum, shentsize, shnum, shndx int
}

type progOffsets struct {
	typ, flags, offset, vaddr, paddr, filesz, memsz int
}

type layout struct {
	name      string
	entrySize int
	addrSize  int
	typeSize  int
	hdr       headerOffsets
	prog      progOffsets
}

var (
	layoutFixed64 = &layout{
		name:      "fixed64",
		entrySize: Prog64Size,
		addrSize:  8,
		typeSize:  1,
		hdr: headerOffsets{
			typ: 0x10, machine: 0x12, entry: 0x18, phoff: 0x20, shoff: 0x28,
			ehsize: 0x34, phentsize: 0x36, phnum: 0x38, shentsize: 0x3A, shnum: 0x3C, shndx: 0x3E,
		},
		prog: progOffsets{
			typ: 0x04, offset: 0x08, vaddr: 0x10, paddr: 0x18, filesz: 0x20, memsz: 0x28, flags: 0x30,
		},
	}

	layoutELF64 = &layout{
		name:      "elf64",
		entrySize: Prog64Size,
		addrSize:  8,
		typeSize:  2,
		hdr:       layoutFixed64.hdr,
		prog: progOffsets{
			typ: 0x00, flags: 0x04, offset: 0x08, vaddr: 0x10, paddr: 0x18, filesz: 0x20, memsz: 0x28,
		},
	}

	layoutELF32 = &layout{
		name:      "elf32",
		entrySize: Prog32Size,
		addrSize:  4,
		typeSize:  2,
		hdr: headerOffsets{
			typ: 0x10, machine: 0x12, entry: 0x18, phoff: 0x1C, shoff: 0x20,
			ehsize: 0x28, phentsize: 0x2A, phnum: 0x2C, shentsize: 0x2E, shnum: 0x30, shndx: 0x32,
		},
		prog: progOffsets{
			typ: 0x00, offset: 0x04, vaddr: 0x08, paddr: 0x0C, filesz: 0x10, memsz: 0x14, flags: 0x18,
		},
	}
)

// selectLayout picks the layout for a header whose identification bytes are
// already validated.
func selectLayout(policy LayoutPolicy, class Class) *layout {
	if policy != LayoutStandard {
		return layoutFixed64
	}
	if class == Class32 {
		return layoutELF32
	}
	return layoutELF64
}

func (l *layout) addr(order binary.ByteOrder, b []byte, off int) uint64 {
	if l.addrSize == 4 {
		return uint64(ReadU32(order, b, off))
	}
	return ReadU64(order, b, off)
}

func (l *layout) decodeHeader(raw *[HeaderSize]byte, order binary.ByteOrder) Header {
	b := raw[:]
	h := Header{
		Raw:     *raw,
		Class:   Class(ReadU8(b, 4)),
		Data:    Data(ReadU8(b, 5)),
		Version: ReadU8(b, 6),
	}
	copy(h.Magic[:], b[:4])

	if l.typeSize == 1 {
		h.Type = FileType(ReadU8(b, l.hdr.typ))
	} else {
		h.Type = FileType(ReadU16(order, b, l.hdr.typ))
	}
	h.Machine = Machine(ReadU16(order, b, l.hdr.machine))
	h.Entry = l.addr(order, b, l.hdr.entry)
	h.PhOff = l.addr(order, b, l.hdr.phoff)
	h.ShOff = l.addr(order, b, l.hdr.shoff)
	h.EhSize = ReadU16(order, b, l.hdr.ehsize)
	h.PhEntSize = ReadU16(order, b, l.hdr.phentsize)
	h.PhNum = ReadU16(order, b, l.hdr.phnum)
	h.ShEntSize = ReadU16(order, b, l.hdr.shentsize)
	h.ShNum = ReadU16(order, b, l.hdr.shnum)
	h.ShStrNdx = ReadU16(order, b, l.hdr.shndx)
	return h
}

func (l *layout) decodeSegment(entry []byte, order binary.ByteOrder, index int) Segment {
	return Segment{
		Index:    index,
		Type:     SegmentType(ReadU32(order, entry, l.prog.typ)),
		Offset:   l.addr(order, entry, l.prog.offset),
		Vaddr:    l.addr(order, entry, l.prog.vaddr),
		Paddr:    l.addr(order, entry, l.prog.paddr),
		FileSize: HexAddress(l.addr(order, entry, l.prog.filesz)),
		MemSize:  HexAddress(l.addr(order, entry, l.prog.memsz)),
		Flags:    SegmentFlags(ReadU32(order, entry, l.prog.flags)),
	}
}
