package elfhdr

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotELF matches any *NotELFError.
	ErrNotELF = errors.New("not an ELF file")
	// ErrTruncated matches *TruncatedHeaderError and *TruncatedSegmentError.
	ErrTruncated = errors.New("truncated input")
)

// NotELFError reports a magic number mismatch. Nothing past the header read
// is attempted once it is returned.
type NotELFError struct {
	Magic [4]byte
}

// Hex returns the observed magic as contiguous uppercase hex, e.g. "7F454C46".
func (e *NotELFError) Hex() string {
	return fmt.Sprintf("%X", e.Magic[:])
}

func (e *NotELFError) Error() string {
	return fmt.Sprintf("not an ELF file (magic %s)", e.Hex())
}

func (e *NotELFError) Is(target error) bool { return target == ErrNotELF }

// TruncatedHeaderError reports fewer than HeaderSize bytes at the start of
// the source.
type TruncatedHeaderError struct {
	Want int
	Got  int
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated ELF header: want %d bytes at offset 0, got %d", e.Want, e.Got)
}

func (e *TruncatedHeaderError) Is(target error) bool { return target == ErrTruncated }

// TruncatedSegmentError reports a short read of program header entry Index,
// which starts at file offset Offset.
type TruncatedSegmentError struct {
	Index  int
	Offset uint64
	Want   int
	Got    int
}

func (e *TruncatedSegmentError) Error() string {
	return fmt.Sprintf("truncated program header %d: want %d bytes at offset %#x, got %d",
		e.Index, e.Want, e.Offset, e.Got)
}

func (e *TruncatedSegmentError) Is(target error) bool { return target == ErrTruncated }

// SeekError reports a program header offset that the source cannot reach.
// Size is -1 when the source size could not be determined.
type SeekError struct {
	Offset uint64
	Size   int64
	Err    error
}

func (e *SeekError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seek to program header table at %#x: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("seek to program header table at %#x: beyond end of input (%d bytes)", e.Offset, e.Size)
}

func (e *SeekError) Unwrap() error { return e.Err }

// OpenError reports a file that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open file %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
