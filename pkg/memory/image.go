package memory

import (
	"bytes"
	"io"
)

// Format selects an output encoding.
type Format string

const (
	FormatBinary    Format = "bin"
	FormatSRecord   Format = "srec"
	FormatSRecCount Format = "srec+count"
	FormatIntelHex  Format = "ihex"
	FormatHexDump   Format = "hexdump"
)

// DefaultBytesPerRecord is the data payload width used by the record
// writers when the caller does not choose one.
const DefaultBytesPerRecord = 16

// Image is one logical firmware image: a sparse segment collection plus
// optional header text and an optional start address.
type Image struct {
	header   [][]byte
	start    uint32
	startSet bool
	segments *Segments
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{segments: NewSegments()}
}

// Segments exposes the image's segment collection. Each image owns its
// collection exclusively.
func (img *Image) Segments() *Segments { return img.segments }

// IsEmpty reports whether the image holds no data bytes.
func (img *Image) IsEmpty() bool { return img.segments.Span() == 0 }

// Header returns all header texts collected from S-record inputs,
// joined by tab characters.
func (img *Image) Header() []byte {
	return bytes.Join(img.header, []byte{'\t'})
}

// StartAddress returns the declared entry point, if any input set one.
func (img *Image) StartAddress() (uint32, bool) { return img.start, img.startSet }

// SetStartAddress declares the entry point address.
func (img *Image) SetStartAddress(addr uint32) {
	img.start = addr
	img.startSet = true
}

// ClearStartAddress removes any declared entry point.
func (img *Image) ClearStartAddress() {
	img.start = 0
	img.startSet = false
}

// extendHeader appends a header text, moving it to the end if an equal
// one was already recorded.
func (img *Image) extendHeader(text []byte) {
	if len(text) == 0 {
		return
	}
	for i, h := range img.header {
		if bytes.Equal(h, text) {
			img.header = append(img.header[:i], img.header[i+1:]...)
			break
		}
	}
	img.header = append(img.header, text)
}

// AddSegment merges one segment into the image.
func (img *Image) AddSegment(seg *Segment, overwrite bool) error {
	return img.segments.Add(seg, overwrite)
}

// Merge folds another image into this one: headers accumulate, the
// segment collections merge, and start addresses must agree. When both
// images declare different start addresses the merge fails unless
// lastStart is set, in which case other's wins.
func (img *Image) Merge(other *Image, overwrite, lastStart bool) error {
	img.extendHeader(other.Header())
	if other.startSet && (!img.startSet || other.start != img.start) {
		if img.startSet && !lastStart {
			return &StartConflictError{Old: img.start, New: other.start}
		}
		img.SetStartAddress(other.start)
	}
	return img.segments.Merge(other.segments, overwrite)
}

// MoveTo relocates the image's memory so it begins at addr.
func (img *Image) MoveTo(addr uint32) error {
	return img.segments.MoveTo(addr)
}

// Write encodes the image in the requested format. Unknown formats fall
// back to the human-readable hex dump.
func (img *Image) Write(w io.Writer, format Format) error {
	switch format {
	case FormatBinary:
		return img.WriteBinary(w)
	case FormatSRecord:
		return img.WriteSRecord(w, SRecordOptions{})
	case FormatSRecCount:
		return img.WriteSRecord(w, SRecordOptions{RecordCount: true})
	case FormatIntelHex:
		return img.WriteIntelHex(w, DefaultBytesPerRecord)
	default:
		return img.WriteHexDump(w)
	}
}
