// Package convert runs the read / transform / encode pipeline shared by
// the hexcat command line and the HTTP service.
package convert

import (
	"errors"
	"fmt"

	"github.com/seastrand/hexcat/pkg/memory"
)

// DefaultLimitBytes caps the output span at 32 MB unless overridden.
const DefaultLimitBytes = 32 * 1024 * 1024

// Input is one already-loaded input file.
type Input struct {
	Name     string
	Data     []byte
	Offset   uint32 // relocation target for the whole image
	Relocate bool   // Offset is meaningful
}

// Options are the transformations applied between reading the inputs
// and encoding the output, in pipeline order.
type Options struct {
	OverwriteData bool     // newer data may overwrite older data
	LastStartWins bool     // take the start address from the last input
	Fill          string   // hex pattern for gap filling
	Keep          []string // ADDR-ADDR ranges to keep
	Remove        []string // ADDR-ADDR ranges to remove
	WriteData     []string // DATA[@ADDR] tokens, big-endian
	WriteValue    []string // VAL[@ADDR] tokens, little-endian
	LimitBytes    uint64   // output span limit; 0 means DefaultLimitBytes
}

// SpanLimitError reports an output image spanning more memory than the
// configured limit.
type SpanLimitError struct {
	Span  uint64
	Limit uint64
}

func (e *SpanLimitError) Error() string {
	return fmt.Sprintf("data span (0x%08x bytes) exceeds the %d byte limit", e.Span, e.Limit)
}

// Warnings users should see even when the pipeline succeeds.
const (
	WarnNoInput  = "no input memory"
	WarnNoOutput = "no output memory: all memory removed by user options"
)

// Run decodes and merges the inputs, applies the transformations, and
// returns the final image. It stops at the first error.
func Run(inputs []Input, opts Options) (*memory.Image, []string, error) {
	img := memory.NewImage()
	for _, in := range inputs {
		part, err := memory.Decode(in.Data, opts.OverwriteData)
		if err != nil {
			return nil, nil, tagFilename(err, in.Name)
		}
		if in.Relocate {
			if err := part.MoveTo(in.Offset); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", in.Name, err)
			}
		}
		if err := img.Merge(part, opts.OverwriteData, opts.LastStartWins); err != nil {
			return nil, nil, tagFilename(err, in.Name)
		}
	}

	if err := writeCustom(img, opts.WriteData, false); err != nil {
		return nil, nil, err
	}
	if err := writeCustom(img, opts.WriteValue, true); err != nil {
		return nil, nil, err
	}

	var warnings []string
	if img.IsEmpty() {
		return img, append(warnings, WarnNoInput), nil
	}

	if opts.Fill != "" {
		pattern, _, err := ParseDataToken(opts.Fill, false)
		if err != nil {
			return nil, nil, err
		}
		if err := img.Segments().Fill(pattern); err != nil {
			return nil, nil, err
		}
	}
	if err := keepRanges(img, opts.Keep); err != nil {
		return nil, nil, err
	}
	for _, token := range opts.Remove {
		lo, hi, err := ParseRangeToken(token)
		if err != nil {
			return nil, nil, err
		}
		img.Segments().Remove(lo, hi)
	}
	if img.IsEmpty() {
		warnings = append(warnings, WarnNoOutput)
	}

	limit := opts.LimitBytes
	if limit == 0 {
		limit = DefaultLimitBytes
	}
	if span := img.Segments().Span(); span > limit {
		return nil, nil, &SpanLimitError{Span: span, Limit: limit}
	}
	return img, warnings, nil
}

// writeCustom merges DATA[@ADDR] tokens as fresh segments. A token with
// an empty data part is a no-op: its zero-length segment is dropped by
// the collection.
func writeCustom(img *memory.Image, tokens []string, littleEndian bool) error {
	for _, token := range tokens {
		data, addr, err := ParseDataToken(token, littleEndian)
		if err != nil {
			return err
		}
		seg, err := memory.NewSegment(data, addr)
		if err != nil {
			return err
		}
		if err := img.AddSegment(seg, false); err != nil {
			return err
		}
	}
	return nil
}

func keepRanges(img *memory.Image, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	keepers := memory.NewSegments()
	for _, token := range tokens {
		lo, hi, err := ParseRangeToken(token)
		if err != nil {
			return err
		}
		if err := keepers.AddAll(img.Segments().Range(lo, hi), false); err != nil {
			return err
		}
	}
	img.Segments().Clear()
	return img.Segments().Merge(keepers, false)
}

// tagFilename attaches the input filename to decode errors that carry
// position info, and wraps everything else with a filename prefix.
func tagFilename(err error, name string) error {
	var content *memory.ContentError
	if errors.As(err, &content) {
		content.Filename = name
		return content
	}
	return fmt.Errorf("%s: %w", name, err)
}
