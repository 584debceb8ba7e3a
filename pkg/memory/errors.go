package memory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAddressRange reports data placed outside the 32-bit address space.
	ErrAddressRange = errors.New("address outside 32-bit range")
	// ErrContent is the common ancestor of all record-level decode errors.
	ErrContent = errors.New("invalid file content")
)

// RangeError reports a segment whose last byte would land at or beyond 2^32.
type RangeError struct {
	Last uint64 // address of the offending byte
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("memory address too high (up to %#x)", e.Last)
}

func (e *RangeError) Unwrap() error { return ErrAddressRange }

// CollisionError reports overlapping segments that disagree on a byte
// while overwrite is disabled.
type CollisionError struct {
	Addr     uint64 // first address where the segments differ
	Existing byte
	Incoming byte
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("data collision at %#x: existing %#02x, incoming %#02x (use overwrite to replace)",
		e.Addr, e.Existing, e.Incoming)
}

// GapError reports an attempt to combine two segments with unspecified
// memory between them. Gaps are never filled implicitly.
type GapError struct {
	LoEnd   uint64 // end of the lower segment
	HiStart uint64 // start of the higher segment
}

func (e *GapError) Error() string {
	return fmt.Sprintf("non-sequential data: gap between %#x and %#x", e.LoEnd, e.HiStart)
}

// ChecksumError reports a record whose checksum byte does not match the
// record contents.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid checksum: calculated 0x%02X, but record has 0x%02X", e.Expected, e.Actual)
}

// RecordLengthError reports a count field that disagrees with the number
// of bytes actually present in the record.
type RecordLengthError struct {
	Expected int
	Actual   int
}

func (e *RecordLengthError) Error() string {
	return fmt.Sprintf("invalid byte count: record has 0x%02X bytes, but count set to 0x%02X bytes", e.Expected, e.Actual)
}

// RecordTypeLengthError reports a fixed-length record type carrying the
// wrong number of bytes.
type RecordTypeLengthError struct {
	Type     byte
	Expected int
	Actual   int
}

func (e *RecordTypeLengthError) Error() string {
	return fmt.Sprintf("invalid byte count: record type %d expects 0x%02X bytes; actual 0x%02X bytes",
		e.Type, e.Expected, e.Actual)
}

// BadRecordTypeError reports a record type the codec does not support.
type BadRecordTypeError struct {
	Type byte
}

func (e *BadRecordTypeError) Error() string {
	return fmt.Sprintf("invalid record type: %d is not a valid record type", e.Type)
}

// ContentError decorates a record-level error with its position in the
// input. Filename is filled in by the caller that knows it.
type ContentError struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 0-based column of the offending field
	LineText string // raw line, trailing whitespace stripped
	Err      error
}

func (e *ContentError) Error() string {
	var b strings.Builder
	b.WriteString("ERROR: ")
	if e.Filename != "" {
		fmt.Fprintf(&b, "In file %q (line %d)\n       ", e.Filename, e.Line)
	} else if e.Line > 0 {
		fmt.Fprintf(&b, "At line %d\n       ", e.Line)
	}
	if e.LineText != "" {
		b.WriteString(e.LineText)
		b.WriteString("\n       ")
		b.WriteString(strings.Repeat(" ", e.Column))
		b.WriteString("^^\n       ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ContentError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrContent) match any decorated decode error.
func (e *ContentError) Is(target error) bool { return target == ErrContent }

// StartConflictError reports two inputs declaring different start
// addresses without a "last start wins" policy.
type StartConflictError struct {
	Old uint32
	New uint32
}

func (e *StartConflictError) Error() string {
	return fmt.Sprintf("the start address (0x%X) conflicts with a previously defined start address (0x%X)",
		e.New, e.Old)
}
