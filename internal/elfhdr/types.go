// Package elfhdr decodes the ELF file header and program header table from a
// seekable byte source.
package elfhdr

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the number of bytes read for the file header, whatever the layout.
	HeaderSize = 64

	// Prog64Size is the size of one program header entry in the 64-bit layouts.
	Prog64Size = 56

	// Prog32Size is the size of one program header entry in the 32-bit layout.
	Prog32Size = 32

	maxEntrySize = Prog64Size
)

// Magic is the ELF identification sentinel found at offset 0.
var Magic = [4]byte{0x7F, 'E', 'L', 'F'}

// Class is the EI_CLASS identification byte.
type Class uint8

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

func (c Class) String() string { return ClassName(c) }

// Data is the EI_DATA identification byte.
type Data uint8

const (
	DataNone Data = 0
	DataLSB  Data = 1
	DataMSB  Data = 2
)

func (d Data) String() string { return DataName(d) }

// FileType is the object file type (e_type).
type FileType uint16

const (
	TypeNone FileType = 0
	TypeRel  FileType = 1
	TypeExec FileType = 2
	TypeDyn  FileType = 3
	TypeCore FileType = 4
)

func (t FileType) String() string { return TypeName(t) }

// Machine is the target architecture (e_machine).
type Machine uint16

const (
	Machine386     Machine = 0x03
	MachineX86_64  Machine = 0x3E
	MachineAArch64 Machine = 0xB7
)

func (m Machine) String() string { return MachineName(m) }

// SegmentType is the program header p_type value.
type SegmentType uint32

const (
	PTNull       SegmentType = 0
	PTLoad       SegmentType = 1
	PTDynamic    SegmentType = 2
	PTInterp     SegmentType = 3
	PTNote       SegmentType = 4
	PTShlib      SegmentType = 5
	PTPhdr       SegmentType = 6
	PTTLS        SegmentType = 7
	PTGNUEHFrame SegmentType = 0x6474e550
	PTGNUStack   SegmentType = 0x6474e551
	PTGNURelro   SegmentType = 0x6474e552
)

func (t SegmentType) String() string { return SegmentTypeName(t) }

// SegmentFlags is the program header p_flags value.
type SegmentFlags uint32

const (
	FlagRead    SegmentFlags = 0x1
	FlagWrite   SegmentFlags = 0x2
	FlagExecute SegmentFlags = 0x4
)

// String renders the flags with the literal policy.
func (f SegmentFlags) String() string { return FlagsName(FlagsLiteral, f) }

// HexAddress is a 64-bit quantity displayed as a fixed-width hexadecimal
// value annotated with its decimal byte count.
type HexAddress uint64

func (a HexAddress) String() string {
	return fmt.Sprintf("0x%016X (%d bytes)", uint64(a), uint64(a))
}

// Header is the decoded ELF file header.
type Header struct {
	Raw       [HeaderSize]byte
	Magic     [4]byte
	Class     Class
	Data      Data
	Version   uint8
	Type      FileType
	Machine   Machine
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

// Segment is one decoded program header entry.
type Segment struct {
	Index    int
	Type     SegmentType
	Offset   uint64
	Vaddr    uint64
	Paddr    uint64
	FileSize HexAddress
	MemSize  HexAddress
	Flags    SegmentFlags
}

// File is the result of a single parse pass. Segments are in table order.
type File struct {
	Header   Header
	Segments []Segment

	// Layout is the name of the layout the fields were decoded with.
	Layout string
	// EntrySize is the stride used to walk the program header table.
	EntrySize int
	// ByteOrder is the order multi-byte fields were read in.
	ByteOrder binary.ByteOrder
}
