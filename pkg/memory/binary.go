package memory

import "io"

// DecodeBinary wraps raw bytes as a single segment at address zero. It
// is the fallback for inputs that are neither S-record nor Intel Hex.
func DecodeBinary(data []byte) (*Image, error) {
	img := NewImage()
	seg, err := NewSegment(data, 0)
	if err != nil {
		return nil, err
	}
	if err := img.segments.Add(seg, false); err != nil {
		return nil, err
	}
	return img, nil
}

// WriteBinary concatenates every segment's bytes in address order.
// Gaps and addresses are not represented, so re-reading the output of a
// sparse image will not reproduce it.
func (img *Image) WriteBinary(w io.Writer) error {
	for _, seg := range img.segments.All() {
		if _, err := w.Write(seg.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
