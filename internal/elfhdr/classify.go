package elfhdr

import (
	"fmt"
	"strings"
)

// Unknown is the label for any value without a known name. Unrecognized
// values are valid ELF, just not ones this package names.
const Unknown = "Unknown"

// FlagsPolicy selects how segment flags are turned into a label.
type FlagsPolicy string

const (
	// FlagsLiteral matches the whole value against 0x1, 0x2 and 0x4 only, so
	// combined permissions such as R+X render as Unknown.
	FlagsLiteral FlagsPolicy = "literal"
	// FlagsBitmask renders each set permission bit.
	FlagsBitmask FlagsPolicy = "bitmask"
)

// ParseFlagsPolicy parses a policy name.
func ParseFlagsPolicy(s string) (FlagsPolicy, error) {
	switch FlagsPolicy(strings.ToLower(s)) {
	case FlagsLiteral, "":
		return FlagsLiteral, nil
	case FlagsBitmask:
		return FlagsBitmask, nil
	default:
		return "", fmt.Errorf("unknown flags policy %q (valid: literal, bitmask)", s)
	}
}

// ClassName labels EI_CLASS: "32-bit", "64-bit" or Unknown.
func ClassName(c Class) string {
	switch c {
	case Class32:
		return "32-bit"
	case Class64:
		return "64-bit"
	default:
		return Unknown
	}
}

// DataName labels EI_DATA: "Little-endian", "Big-endian" or Unknown.
func DataName(d Data) string {
	switch d {
	case DataLSB:
		return "Little-endian"
	case DataMSB:
		return "Big-endian"
	default:
		return Unknown
	}
}

// TypeName labels e_type.
func TypeName(t FileType) string {
	switch t {
	case TypeRel:
		return "Relocatable"
	case TypeExec:
		return "Executable"
	case TypeDyn:
		return "Shared"
	case TypeCore:
		return "Core"
	default:
		return Unknown
	}
}

// MachineName labels e_machine for the architectures this package knows.
func MachineName(m Machine) string {
	switch m {
	case Machine386:
		return "x86"
	case MachineX86_64:
		return "x86-64"
	case MachineAArch64:
		return "AArch64"
	default:
		return Unknown
	}
}

var segmentTypeNames = map[SegmentType]string{
	PTNull:       "PT_NULL",
	PTLoad:       "PT_LOAD",
	PTDynamic:    "PT_DYNAMIC",
	PTInterp:     "PT_INTERP",
	PTNote:       "PT_NOTE",
	PTShlib:      "PT_SHLIB",
	PTPhdr:       "PT_PHDR",
	PTTLS:        "PT_TLS",
	PTGNUEHFrame: "PT_GNU_EH_FRAME",
	PTGNUStack:   "PT_GNU_STACK",
	PTGNURelro:   "PT_GNU_RELRO",
}

// SegmentTypeName returns the PT_* name of a p_type value.
func SegmentTypeName(t SegmentType) string {
	if name, ok := segmentTypeNames[t]; ok {
		return name
	}
	return Unknown
}

// FlagsName labels a p_flags value according to policy.
//
// With FlagsLiteral only the exact values 0x1, 0x2 and 0x4 are named. With
// FlagsBitmask the set bits are listed in R, W, X order, zero is "None", and
// any bit outside the three permission bits yields Unknown.
func FlagsName(policy FlagsPolicy, f SegmentFlags) string {
	if policy == FlagsBitmask {
		const mask = FlagRead | FlagWrite | FlagExecute
		if f&^mask != 0 {
			return Unknown
		}
		if f == 0 {
			return "None"
		}
		var sb strings.Builder
		if f&FlagRead != 0 {
			sb.WriteByte('R')
		}
		if f&FlagWrite != 0 {
			sb.WriteByte('W')
		}
		if f&FlagExecute != 0 {
			sb.WriteByte('X')
		}
		return sb.String()
	}

	switch f {
	case FlagRead:
		return "R"
	case FlagWrite:
		return "W"
	case FlagExecute:
		return "X"
	default:
		return Unknown
	}
}
