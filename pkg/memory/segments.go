package memory

import (
	"slices"
	"sort"
)

// Segments is an ordered collection of non-overlapping, non-adjacent
// segments sorted ascending by base address. Anything added that
// touches or overlaps an existing segment is coalesced into it, so the
// invariant holds after every operation.
type Segments struct {
	segs []*Segment
}

// NewSegments returns an empty collection.
func NewSegments() *Segments { return &Segments{} }

// Lo returns the lowest address covered, or 0 when empty.
func (c *Segments) Lo() uint64 {
	if len(c.segs) == 0 {
		return 0
	}
	return uint64(c.segs[0].addr)
}

// Hi returns the exclusive end of the highest segment, or 0 when empty.
func (c *Segments) Hi() uint64 {
	if len(c.segs) == 0 {
		return 0
	}
	return c.segs[len(c.segs)-1].End()
}

// Span returns the number of bytes between Lo and Hi, gaps included.
func (c *Segments) Span() uint64 { return c.Hi() - c.Lo() }

// Len returns the number of segments.
func (c *Segments) Len() int { return len(c.segs) }

// All returns the segments in address order. The segments are shared,
// not copied; callers must not mutate them.
func (c *Segments) All() []*Segment { return slices.Clone(c.segs) }

// Add merges one segment into the collection. The incoming segment is
// copied first, so the caller's value is never mutated. Zero-length
// segments are dropped silently.
func (c *Segments) Add(seg *Segment, overwrite bool) error {
	if seg == nil || seg.Size() == 0 {
		return nil
	}
	incoming := seg.Clone()

	// A single insert may bridge several existing segments, so keep
	// pulling connected segments out and folding them in until nothing
	// touches the grown segment anymore.
	for {
		i := c.findConnected(incoming)
		if i < 0 {
			break
		}
		host := c.segs[i]
		c.segs = slices.Delete(c.segs, i, i+1)
		if err := host.Add(incoming, overwrite); err != nil {
			return err
		}
		incoming = host
	}
	c.insert(incoming)
	return nil
}

// AddAll merges each segment of the slice in order.
func (c *Segments) AddAll(segs []*Segment, overwrite bool) error {
	for _, seg := range segs {
		if err := c.Add(seg, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// Merge folds another collection into this one. The other collection is
// left untouched.
func (c *Segments) Merge(other *Segments, overwrite bool) error {
	return c.AddAll(other.segs, overwrite)
}

func (c *Segments) findConnected(seg *Segment) int {
	for i, s := range c.segs {
		if s.Overlaps(seg) || s.Adjacent(seg) {
			return i
		}
	}
	return -1
}

func (c *Segments) insert(seg *Segment) {
	i := sort.Search(len(c.segs), func(i int) bool {
		return c.segs[i].addr > seg.addr
	})
	c.segs = slices.Insert(c.segs, i, seg)
}

// Clear removes every segment.
func (c *Segments) Clear() { c.segs = nil }

// Fill closes every gap between adjacent pairs of segments with the
// pattern, repeated and truncated to the exact gap width. Memory before
// the first and after the last segment is left alone.
func (c *Segments) Fill(pattern []byte) error {
	if len(pattern) == 0 {
		return nil
	}
	var gaps []*Segment
	for i := 0; i+1 < len(c.segs); i++ {
		lo := c.segs[i].End()
		width := uint64(c.segs[i+1].addr) - lo
		data := make([]byte, 0, width)
		for uint64(len(data)) < width {
			data = append(data, pattern...)
		}
		gaps = append(gaps, &Segment{addr: uint32(lo), data: data[:width]})
	}
	for _, gap := range gaps {
		// Gaps cannot overlap existing data, so no collision is possible.
		if err := c.Add(gap, false); err != nil {
			return err
		}
	}
	return nil
}

// Range returns copies of every segment intersecting [lo, hi), clipped
// to that window. Segments fully outside are skipped; segments fully
// inside are returned whole.
func (c *Segments) Range(lo, hi uint64) []*Segment {
	var out []*Segment
	for _, seg := range c.segs {
		if seg.End() <= lo || hi <= uint64(seg.addr) {
			continue
		}
		if lo <= uint64(seg.addr) && seg.End() <= hi {
			out = append(out, seg.Clone())
			continue
		}
		if sub := seg.Subrange(lo, hi); sub.Size() > 0 {
			out = append(out, sub)
		}
	}
	return out
}

// Remove drops the memory in [lo, hi). A segment straddling one
// boundary is truncated; one straddling both is split in two.
func (c *Segments) Remove(lo, hi uint64) {
	var keep []*Segment
	for _, seg := range c.segs {
		if lo <= uint64(seg.addr) && seg.End() <= hi {
			continue
		}
		if seg.End() <= lo || hi <= uint64(seg.addr) {
			keep = append(keep, seg)
			continue
		}
		if uint64(seg.addr) <= lo && lo < seg.End() {
			if sub := seg.Subrange(uint64(seg.addr), lo); sub.Size() > 0 {
				keep = append(keep, sub)
			}
		}
		if uint64(seg.addr) <= hi && hi < seg.End() {
			if sub := seg.Subrange(hi, seg.End()); sub.Size() > 0 {
				keep = append(keep, sub)
			}
		}
	}
	c.segs = keep
}

// MoveTo relocates the whole collection so its lowest address becomes
// addr, preserving the gaps between segments. Every shifted segment is
// revalidated against the 32-bit address space.
func (c *Segments) MoveTo(addr uint32) error {
	if len(c.segs) == 0 {
		return nil
	}
	delta := int64(addr) - int64(c.segs[0].addr)
	for _, seg := range c.segs {
		moved := int64(seg.addr) + delta
		last := moved + int64(seg.Size()) - 1
		if moved < 0 || last >= int64(addrSpace) {
			return &RangeError{Last: uint64(last)}
		}
	}
	for _, seg := range c.segs {
		seg.addr = uint32(int64(seg.addr) + delta)
	}
	return nil
}
