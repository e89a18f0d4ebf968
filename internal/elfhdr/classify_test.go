package elfhdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"class 32", ClassName(1), "32-bit"},
		{"class 64", ClassName(2), "64-bit"},
		{"class unknown", ClassName(7), Unknown},
		{"data lsb", DataName(1), "Little-endian"},
		{"data msb", DataName(2), "Big-endian"},
		{"data none", DataName(0), Unknown},
		{"type rel", TypeName(1), "Relocatable"},
		{"type exec", TypeName(2), "Executable"},
		{"type dyn", TypeName(3), "Shared"},
		{"type core", TypeName(4), "Core"},
		{"type unknown", TypeName(0xFE), Unknown},
		{"machine x86", MachineName(0x03), "x86"},
		{"machine x86-64", MachineName(0x3E), "x86-64"},
		{"machine aarch64", MachineName(0xB7), "AArch64"},
		{"machine unknown", MachineName(0x99), Unknown},
		{"segment null", SegmentTypeName(0), "PT_NULL"},
		{"segment load", SegmentTypeName(1), "PT_LOAD"},
		{"segment tls", SegmentTypeName(7), "PT_TLS"},
		{"segment eh frame", SegmentTypeName(0x6474e550), "PT_GNU_EH_FRAME"},
		{"segment stack", SegmentTypeName(0x6474e551), "PT_GNU_STACK"},
		{"segment relro", SegmentTypeName(0x6474e552), "PT_GNU_RELRO"},
		{"segment unknown", SegmentTypeName(0x70000000), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "64-bit", Class64.String())
	assert.Equal(t, "Big-endian", DataMSB.String())
	assert.Equal(t, "Shared", TypeDyn.String())
	assert.Equal(t, "AArch64", MachineAArch64.String())
	assert.Equal(t, "PT_INTERP", PTInterp.String())
	assert.Equal(t, "X", FlagExecute.String())
	assert.Equal(t, "0x0000000000000078 (120 bytes)", HexAddress(120).String())
}

// Literal matching is the default: combined permission bits are reported as
// Unknown rather than decomposed.
func TestFlagsNameLiteral(t *testing.T) {
	tests := []struct {
		flags SegmentFlags
		want  string
	}{
		{0x1, "R"},
		{0x2, "W"},
		{0x4, "X"},
		{0x0, Unknown},
		{0x3, Unknown},
		{0x5, Unknown},
		{0x6, Unknown},
		{0x7, Unknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FlagsName(FlagsLiteral, tt.flags), "flags %#x", uint32(tt.flags))
	}
}

func TestFlagsNameBitmask(t *testing.T) {
	tests := []struct {
		flags SegmentFlags
		want  string
	}{
		{0x0, "None"},
		{0x1, "R"},
		{0x4, "X"},
		{0x5, "RX"},
		{0x6, "WX"},
		{0x7, "RWX"},
		{0x8, Unknown},
		{0xF0000005, Unknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FlagsName(FlagsBitmask, tt.flags), "flags %#x", uint32(tt.flags))
	}
}

func TestParsePolicies(t *testing.T) {
	fp, err := ParseFlagsPolicy("BITMASK")
	require.NoError(t, err)
	assert.Equal(t, FlagsBitmask, fp)

	fp, err = ParseFlagsPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FlagsLiteral, fp)

	_, err = ParseFlagsPolicy("octal")
	assert.Error(t, err)

	lp, err := ParseLayoutPolicy("standard")
	require.NoError(t, err)
	assert.Equal(t, LayoutStandard, lp)

	_, err = ParseLayoutPolicy("elf16")
	assert.Error(t, err)

	bp, err := ParseByteOrderPolicy("header")
	require.NoError(t, err)
	assert.Equal(t, ByteOrderHeader, bp)

	_, err = ParseByteOrderPolicy("middle")
	assert.Error(t, err)
}
