package elfhdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ByteOrderPolicy selects the byte order of multi-byte fields.
type ByteOrderPolicy string

const (
	// ByteOrderLittle reads every field little-endian, ignoring EI_DATA.
	ByteOrderLittle ByteOrderPolicy = "little"

	// ByteOrderHeader reads fields big-endian when EI_DATA says so.
	ByteOrderHeader ByteOrderPolicy = "header"
)

// ParseByteOrderPolicy parses a byte order policy name.
func ParseByteOrderPolicy(s string) (ByteOrderPolicy, error) {
	switch ByteOrderPolicy(strings.ToLower(s)) {
	case ByteOrderLittle, "":
		return ByteOrderLittle, nil
	case ByteOrderHeader:
		return ByteOrderHeader, nil
	default:
		return "", fmt.Errorf("unknown byte order %q (valid: little, header)", s)
	}
}

// Options configures a Parser. The zero value decodes every file with the
// fixed 64-bit layout, little-endian.
type Options struct {
	ByteOrder ByteOrderPolicy
	Layout    LayoutPolicy
}

// Parser decodes the ELF header and program header table. It holds no
// per-parse state and may be shared between goroutines.
type Parser struct {
	opts Options
}

// NewParser creates a new parser
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse decodes src with default options.
func Parse(src io.ReadSeeker) (*File, error) {
	return NewParser(Options{}).Parse(src)
}

// Parse reads the 64-byte header from the current position of src, checks
// the magic, decodes the header, then seeks to the program header table and
// decodes PhNum entries in table order.
//
// Any short read or failed seek aborts the whole parse; no partial result is
// returned.
func (p *Parser) Parse(src io.ReadSeeker) (*File, error) {
	var raw [HeaderSize]byte
	if n, err := io.ReadFull(src, raw[:]); err != nil {
		if isShortRead(err) {
			return nil, &TruncatedHeaderError{Want: HeaderSize, Got: n}
		}
		return nil, errors.Wrap(err, "read ELF header")
	}

	if !bytes.Equal(raw[:4], Magic[:]) {
		e := &NotELFError{}
		copy(e.Magic[:], raw[:4])
		return nil, e
	}

	order := p.byteOrder(Data(raw[5]))
	l := selectLayout(p.opts.Layout, Class(raw[4]))
	hdr := l.decodeHeader(&raw, order)

	if err := seekTo(src, hdr.PhOff); err != nil {
		return nil, err
	}

	segs, err := readSegments(src, l, order, &hdr)
	if err != nil {
		return nil, err
	}

	return &File{
		Header:    hdr,
		Segments:  segs,
		Layout:    l.name,
		EntrySize: l.entrySize,
		ByteOrder: order,
	}, nil
}

func (p *Parser) byteOrder(d Data) binary.ByteOrder {
	if p.opts.ByteOrder == ByteOrderHeader && d == DataMSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// seekTo moves src to the absolute offset off. Offsets past the end of the
// source are rejected even though most seekers would accept them.
func seekTo(src io.Seeker, off uint64) error {
	if off > math.MaxInt64 {
		return &SeekError{Offset: off, Size: -1, Err: errors.New("offset does not fit in int64")}
	}
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return &SeekError{Offset: off, Size: -1, Err: err}
	}
	if int64(off) > size {
		return &SeekError{Offset: off, Size: size}
	}
	if _, err := src.Seek(int64(off), io.SeekStart); err != nil {
		return &SeekError{Offset: off, Size: size, Err: err}
	}
	return nil
}

func readSegments(src io.Reader, l *layout, order binary.ByteOrder, hdr *Header) ([]Segment, error) {
	segs := make([]Segment, 0, hdr.PhNum)

	var entry [maxEntrySize]byte
	buf := entry[:l.entrySize]
	for i := 0; i < int(hdr.PhNum); i++ {
		n, err := io.ReadFull(src, buf)
		if err != nil {
			if isShortRead(err) {
				return nil, &TruncatedSegmentError{
					Index:  i,
					Offset: hdr.PhOff + uint64(i)*uint64(l.entrySize),
					Want:   l.entrySize,
					Got:    n,
				}
			}
			return nil, errors.Wrapf(err, "read program header %d", i)
		}
		segs = append(segs, l.decodeSegment(buf, order, i))
	}
	return segs, nil
}

func isShortRead(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
