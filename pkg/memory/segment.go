package memory

// Segment is a contiguous run of bytes anchored at a base address.
// The whole run must fit inside the 32-bit address space [0, 2^32).
type Segment struct {
	addr uint32
	data []byte
}

const addrSpace = uint64(1) << 32

// NewSegment builds a segment at addr holding a copy of data. It fails
// if the last byte would land at or beyond 2^32.
func NewSegment(data []byte, addr uint32) (*Segment, error) {
	s := &Segment{addr: addr, data: append([]byte(nil), data...)}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segment) validate() error {
	if len(s.data) == 0 {
		return nil
	}
	last := uint64(s.addr) + uint64(len(s.data)) - 1
	if last >= addrSpace {
		return &RangeError{Last: last}
	}
	return nil
}

// Addr returns the base address of the segment.
func (s *Segment) Addr() uint32 { return s.addr }

// End returns the exclusive end address. It is uint64 because a segment
// ending exactly at the top of the address space has end 2^32.
func (s *Segment) End() uint64 { return uint64(s.addr) + uint64(len(s.data)) }

// Size returns the number of bytes in the segment.
func (s *Segment) Size() int { return len(s.data) }

// Bytes returns the segment's backing bytes. Callers must not mutate
// the returned slice.
func (s *Segment) Bytes() []byte { return s.data }

// Clone returns an independent copy of the segment.
func (s *Segment) Clone() *Segment {
	return &Segment{addr: s.addr, data: append([]byte(nil), s.data...)}
}

// Overlaps reports whether the two address ranges intersect.
func (s *Segment) Overlaps(other *Segment) bool {
	return uint64(other.addr) < s.End() && uint64(s.addr) < other.End()
}

// Adjacent reports whether one segment ends exactly where the other
// begins, with no gap and no overlap.
func (s *Segment) Adjacent(other *Segment) bool {
	return uint64(other.addr) == s.End() || uint64(s.addr) == other.End()
}

// byteAt returns the byte stored at absolute address a. The caller must
// ensure a is inside the segment.
func (s *Segment) byteAt(a uint64) byte { return s.data[a-uint64(s.addr)] }

// Add combines other into s. Overlapping ranges must carry identical
// bytes unless overwrite is set, in which case other's bytes win.
// Adjacent segments concatenate. A gap between the two is an error:
// gaps are only ever closed explicitly via Segments.Fill.
func (s *Segment) Add(other *Segment, overwrite bool) error {
	switch {
	case s.Overlaps(other):
		if !overwrite {
			lo := max(uint64(s.addr), uint64(other.addr))
			hi := min(s.End(), other.End())
			for a := lo; a < hi; a++ {
				if s.byteAt(a) != other.byteAt(a) {
					return &CollisionError{Addr: a, Existing: s.byteAt(a), Incoming: other.byteAt(a)}
				}
			}
		}
		s.splice(other)
	case s.Adjacent(other):
		if s.addr < other.addr {
			s.data = append(s.data, other.data...)
		} else {
			s.data = append(append([]byte(nil), other.data...), s.data...)
			s.addr = other.addr
		}
	default:
		if s.End() < uint64(other.addr) {
			return &GapError{LoEnd: s.End(), HiStart: uint64(other.addr)}
		}
		return &GapError{LoEnd: other.End(), HiStart: uint64(s.addr)}
	}
	return nil
}

// splice lays other's bytes over s, keeping whatever of s sticks out on
// either side. The ranges are known to overlap.
func (s *Segment) splice(other *Segment) {
	var left, right []byte
	if s.addr < other.addr {
		left = s.data[:other.addr-s.addr]
	}
	if s.End() > other.End() {
		right = s.data[other.End()-uint64(s.addr):]
	}
	merged := make([]byte, 0, len(left)+len(other.data)+len(right))
	merged = append(merged, left...)
	merged = append(merged, other.data...)
	merged = append(merged, right...)
	s.data = merged
	if other.addr < s.addr {
		s.addr = other.addr
	}
}

// Subrange returns the intersection of the segment with [lo, hi) as a
// new segment. Both bounds are clamped to the segment's own range; a
// disjoint window yields an empty segment.
func (s *Segment) Subrange(lo, hi uint64) *Segment {
	from := uint64(0)
	if lo > uint64(s.addr) {
		from = lo - uint64(s.addr)
	}
	to := uint64(len(s.data))
	if hi < uint64(s.addr) {
		to = 0
	} else if hi < s.End() {
		to = hi - uint64(s.addr)
	}
	if to <= from {
		return &Segment{}
	}
	return &Segment{
		addr: s.addr + uint32(from),
		data: append([]byte(nil), s.data[from:to]...),
	}
}

// Split partitions the segment into consecutive chunks of at most
// chunkSize bytes; the final chunk may be shorter.
func (s *Segment) Split(chunkSize int) []*Segment {
	out := make([]*Segment, 0, (len(s.data)+chunkSize-1)/chunkSize)
	for off := 0; off < len(s.data); off += chunkSize {
		end := min(off+chunkSize, len(s.data))
		out = append(out, &Segment{
			addr: s.addr + uint32(off),
			data: append([]byte(nil), s.data[off:end]...),
		})
	}
	return out
}
