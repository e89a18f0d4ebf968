package checks

import (
	"encoding/binary"
	"fmt"

	"github.com/raven-betanet/elf-inspector/internal/elfhdr"
)

// NewDefaultRegistry registers every built-in check. policy is the flags
// policy the report will be rendered with.
func NewDefaultRegistry(policy elfhdr.FlagsPolicy) *Registry {
	r := NewRegistry()
	r.Register(&PhEntSizeCheck{})
	r.Register(&EhSizeCheck{})
	r.Register(&EncodingCheck{})
	r.Register(&ClassCheck{})
	r.Register(&FlagsCheck{Policy: policy})
	r.Register(&SegmentBoundsCheck{})
	return r
}

// PhEntSizeCheck compares the declared entry size with the stride the table
// was actually walked with.
type PhEntSizeCheck struct{}

func (c *PhEntSizeCheck) ID() string { return "phentsize" }

func (c *PhEntSizeCheck) Description() string {
	return "Program header entry size matches the decoding layout"
}

func (c *PhEntSizeCheck) Execute(f *elfhdr.File) Result {
	if f.Header.PhNum == 0 {
		return Result{Status: StatusSkip, Message: "no program headers"}
	}
	if int(f.Header.PhEntSize) != f.EntrySize {
		msg := fmt.Sprintf("header declares %d-byte entries but the table was read with a %d-byte stride",
			f.Header.PhEntSize, f.EntrySize)
		return Result{
			Status:  StatusWarn,
			Message: msg,
			Details: map[string]interface{}{"declared": f.Header.PhEntSize, "stride": f.EntrySize},
		}
	}
	return Result{Status: StatusPass, Message: fmt.Sprintf("%d-byte entries", f.EntrySize)}
}

// EhSizeCheck compares e_ehsize with the header size of the layout.
type EhSizeCheck struct{}

func (c *EhSizeCheck) ID() string { return "ehsize" }

func (c *EhSizeCheck) Description() string {
	return "ELF header size matches the decoding layout"
}

func (c *EhSizeCheck) Execute(f *elfhdr.File) Result {
	want := uint16(elfhdr.HeaderSize)
	if f.Layout == "elf32" {
		want = 52
	}
	if f.Header.EhSize != want {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("header declares %d bytes, layout %s expects %d", f.Header.EhSize, f.Layout, want),
			Details: map[string]interface{}{"declared": f.Header.EhSize, "expected": want},
		}
	}
	return Result{Status: StatusPass, Message: fmt.Sprintf("%d bytes", want)}
}

// EncodingCheck reports files whose EI_DATA disagrees with the byte order the
// fields were read in.
type EncodingCheck struct{}

func (c *EncodingCheck) ID() string { return "encoding" }

func (c *EncodingCheck) Description() string {
	return "Declared data encoding matches the byte order used for decoding"
}

func (c *EncodingCheck) Execute(f *elfhdr.File) Result {
	readBig := f.ByteOrder == binary.BigEndian
	switch f.Header.Data {
	case elfhdr.DataLSB:
		if !readBig {
			return Result{Status: StatusPass, Message: "little-endian"}
		}
	case elfhdr.DataMSB:
		if readBig {
			return Result{Status: StatusPass, Message: "big-endian"}
		}
	}
	return Result{
		Status:  StatusWarn,
		Message: fmt.Sprintf("file declares %s data but fields were read as %s", f.Header.Data, f.ByteOrder),
	}
}

// ClassCheck reports non-64-bit files decoded with the fixed 64-bit layout.
type ClassCheck struct{}

func (c *ClassCheck) ID() string { return "class" }

func (c *ClassCheck) Description() string {
	return "File class matches the decoding layout"
}

func (c *ClassCheck) Execute(f *elfhdr.File) Result {
	if f.Layout == "fixed64" && f.Header.Class != elfhdr.Class64 {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s file decoded with 64-bit offsets", f.Header.Class),
		}
	}
	return Result{Status: StatusPass, Message: fmt.Sprintf("%s file, %s layout", f.Header.Class, f.Layout)}
}

// FlagsCheck reports segments whose permission bits are combined, which the
// literal flags policy labels Unknown.
type FlagsCheck struct {
	Policy elfhdr.FlagsPolicy
}

func (c *FlagsCheck) ID() string { return "flags" }

func (c *FlagsCheck) Description() string {
	return "Segment flags have a label under the active flags policy"
}

func (c *FlagsCheck) Execute(f *elfhdr.File) Result {
	if len(f.Segments) == 0 {
		return Result{Status: StatusSkip, Message: "no segments"}
	}

	var unlabeled []int
	for _, s := range f.Segments {
		if elfhdr.FlagsName(c.Policy, s.Flags) == elfhdr.Unknown {
			unlabeled = append(unlabeled, s.Index)
		}
	}
	if len(unlabeled) > 0 {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%d segment(s) render as %s under the %s policy", len(unlabeled), elfhdr.Unknown, c.Policy),
			Details: map[string]interface{}{"segments": unlabeled},
		}
	}
	return Result{Status: StatusPass, Message: "all segment flags labeled"}
}

// SegmentBoundsCheck reports segments whose memory image is smaller than
// their file image.
type SegmentBoundsCheck struct{}

func (c *SegmentBoundsCheck) ID() string { return "segment-bounds" }

func (c *SegmentBoundsCheck) Description() string {
	return "Segment memory size is at least its file size"
}

func (c *SegmentBoundsCheck) Execute(f *elfhdr.File) Result {
	if len(f.Segments) == 0 {
		return Result{Status: StatusSkip, Message: "no segments"}
	}

	var bad []int
	for _, s := range f.Segments {
		if s.MemSize < s.FileSize {
			bad = append(bad, s.Index)
		}
	}
	if len(bad) > 0 {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%d segment(s) have mem_size < file_size", len(bad)),
			Details: map[string]interface{}{"segments": bad},
		}
	}
	return Result{Status: StatusPass, Message: fmt.Sprintf("%d segment(s) in bounds", len(f.Segments))}
}
