package memory

import "unicode/utf8"

// Decode reads an image from raw file content, detecting the format:
// content that is not valid UTF-8 is binary; otherwise S-record is
// tried first, then Intel Hex, and if neither yields any data the
// original bytes are taken as binary. Decode errors from a text format
// abort immediately rather than falling through.
func Decode(data []byte, overwrite bool) (*Image, error) {
	if !utf8.Valid(data) {
		return DecodeBinary(data)
	}
	text := string(data)
	img, err := DecodeSRecord(text, overwrite)
	if err != nil {
		return nil, err
	}
	if img.segments.Len() > 0 {
		return img, nil
	}
	img, err = DecodeIntelHex(text, overwrite)
	if err != nil {
		return nil, err
	}
	if img.segments.Len() > 0 {
		return img, nil
	}
	return DecodeBinary(data)
}
