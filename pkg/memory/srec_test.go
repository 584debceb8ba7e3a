package memory

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeSRecord(t *testing.T) {
	t.Run("data header and start", func(t *testing.T) {
		text := strings.Join([]string{
			"S00600004844521B", // header "HDR"
			"S11000004142434445464748494A4B4C4D54",
			"S9031234B6", // start 0x1234
		}, "\n")
		img, err := DecodeSRecord(text, false)
		if err != nil {
			t.Fatalf("DecodeSRecord: %v", err)
		}
		if got := img.Header(); !bytes.Equal(got, []byte("HDR")) {
			t.Fatalf("header: got %q", got)
		}
		segs := img.Segments().All()
		if len(segs) != 1 || segs[0].Addr() != 0 {
			t.Fatalf("segments: %v", collectRangesOf(segs))
		}
		if !bytes.Equal(segs[0].Bytes(), []byte("ABCDEFGHIJKLM")) {
			t.Fatalf("bytes: got % x", segs[0].Bytes())
		}
		if start, ok := img.StartAddress(); !ok || start != 0x1234 {
			t.Fatalf("start: got %#x ok=%v", start, ok)
		}
	})

	t.Run("surrounding text is ignored", func(t *testing.T) {
		text := "prelude line\n  >> S11000004142434445464748494A4B4C4D54 <<\n"
		img, err := DecodeSRecord(text, false)
		if err != nil {
			t.Fatalf("DecodeSRecord: %v", err)
		}
		if img.Segments().Len() != 1 {
			t.Fatalf("segments: got %d want 1", img.Segments().Len())
		}
	})

	t.Run("record count mismatch is tolerated", func(t *testing.T) {
		text := "S11000004142434445464748494A4B4C4D54\nS503006399\n"
		// The S5 claims 0x63 data records; only one was seen.
		if _, err := DecodeSRecord(text, false); err != nil {
			t.Fatalf("DecodeSRecord: %v", err)
		}
	})

	t.Run("later header replaces earlier", func(t *testing.T) {
		// Two S0 records in one input: only the last survives.
		text := "S00600004844521B\nS006000041424333\nS11000004142434445464748494A4B4C4D54\n"
		img, err := DecodeSRecord(text, false)
		if err != nil {
			t.Fatalf("DecodeSRecord: %v", err)
		}
		if got := img.Header(); !bytes.Equal(got, []byte("ABC")) {
			t.Fatalf("header: got %q", got)
		}
	})
}

func TestDecodeSRecordErrors(t *testing.T) {
	t.Run("corrupted checksum", func(t *testing.T) {
		// Correct checksum is 0x54; the record carries 0x55.
		_, err := DecodeSRecord("S11000004142434445464748494A4B4C4D55", false)
		var content *ContentError
		if !errors.As(err, &content) {
			t.Fatalf("expected ContentError, got %v", err)
		}
		var sum *ChecksumError
		if !errors.As(err, &sum) {
			t.Fatalf("expected ChecksumError, got %v", err)
		}
		if sum.Expected != 0x54 || sum.Actual != 0x55 {
			t.Fatalf("checksum detail: got %+v", sum)
		}
		if content.Line != 1 || content.Column != 34 {
			t.Fatalf("position: line %d column %d", content.Line, content.Column)
		}
		if !errors.Is(err, ErrContent) {
			t.Fatal("expected errors.Is(err, ErrContent)")
		}
	})

	t.Run("count does not match record length", func(t *testing.T) {
		_, err := DecodeSRecord("S105000041B9", false)
		var length *RecordLengthError
		if !errors.As(err, &length) {
			t.Fatalf("expected RecordLengthError, got %v", err)
		}
		if length.Expected != 4 || length.Actual != 5 {
			t.Fatalf("length detail: got %+v", length)
		}
	})

	t.Run("reserved record type", func(t *testing.T) {
		_, err := DecodeSRecord("S4030000FC", false)
		var bad *BadRecordTypeError
		if !errors.As(err, &bad) {
			t.Fatalf("expected BadRecordTypeError, got %v", err)
		}
		if bad.Type != 4 {
			t.Fatalf("type: got %d want 4", bad.Type)
		}
	})

	t.Run("start record with wrong fixed length", func(t *testing.T) {
		_, err := DecodeSRecord("S904001234B5", false)
		var typeLen *RecordTypeLengthError
		if !errors.As(err, &typeLen) {
			t.Fatalf("expected RecordTypeLengthError, got %v", err)
		}
		if typeLen.Type != 9 || typeLen.Expected != 3 || typeLen.Actual != 4 {
			t.Fatalf("detail: got %+v", typeLen)
		}
	})

	t.Run("error reports column of embedded record", func(t *testing.T) {
		_, err := DecodeSRecord("xx S11000004142434445464748494A4B4C4D55", false)
		var content *ContentError
		if !errors.As(err, &content) {
			t.Fatalf("expected ContentError, got %v", err)
		}
		if content.Column != 3+34 {
			t.Fatalf("column: got %d want %d", content.Column, 3+34)
		}
	})
}

func TestWriteSRecordRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		addrs []uint32
		start uint32
		typ   byte // expected data record type
	}{
		{"16-bit", []uint32{0x0000, 0x8000}, 0x1234, '1'},
		{"24-bit", []uint32{0x0000, 0x10000}, 0x1234, '2'},
		{"32-bit", []uint32{0x0000, 0x1000000}, 0x2000000, '3'},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := NewImage()
			img.extendHeader([]byte("hdr"))
			img.SetStartAddress(tc.start)
			for i, addr := range tc.addrs {
				_ = img.AddSegment(mustSegment(t, seq(byte(i), 20), addr), false)
			}
			var buf bytes.Buffer
			if err := img.WriteSRecord(&buf, SRecordOptions{RecordCount: true}); err != nil {
				t.Fatalf("WriteSRecord: %v", err)
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if lines[0][1] != '0' {
				t.Fatalf("first record should be the header, got %q", lines[0])
			}
			if lines[1][1] != tc.typ {
				t.Fatalf("data record type: got %c want %c", lines[1][1], tc.typ)
			}
			if countLine := lines[len(lines)-2]; countLine[1] != '5' {
				t.Fatalf("expected S5 record count, got %q", countLine)
			}
			wantStartType := byte('0' + 10 - (tc.typ - '0'))
			if startLine := lines[len(lines)-1]; startLine[1] != wantStartType {
				t.Fatalf("start record type: got %c want %c", startLine[1], wantStartType)
			}

			back, err := DecodeSRecord(buf.String(), false)
			if err != nil {
				t.Fatalf("decode round-trip: %v", err)
			}
			if got := back.Header(); !bytes.Equal(got, []byte("hdr")) {
				t.Fatalf("header: got %q", got)
			}
			if start, ok := back.StartAddress(); !ok || start != tc.start {
				t.Fatalf("start: got %#x ok=%v want %#x", start, ok, tc.start)
			}
			if !sameSegments(img.Segments(), back.Segments()) {
				t.Fatalf("segments differ:\n got %v\nwant %v",
					collectRanges(back.Segments()), collectRanges(img.Segments()))
			}
		})
	}
}

func TestWriteSRecordNoExtras(t *testing.T) {
	img := NewImage()
	_ = img.AddSegment(mustSegment(t, seq(0, 4), 0), false)
	var buf bytes.Buffer
	if err := img.WriteSRecord(&buf, SRecordOptions{}); err != nil {
		t.Fatalf("WriteSRecord: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "S0") || strings.Contains(out, "S5") || strings.Contains(out, "S9") {
		t.Fatalf("unexpected header/count/start records:\n%s", out)
	}
}

func sameSegments(a, b *Segments) bool {
	as, bs := a.All(), b.All()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i].Addr() != bs[i].Addr() || !bytes.Equal(as[i].Bytes(), bs[i].Bytes()) {
			return false
		}
	}
	return true
}
