package memory

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"math/bits"
	"regexp"
	"strings"
)

// Motorola S record types.
const (
	srecHeader   byte = 0
	srecData16   byte = 1
	srecData24   byte = 2
	srecData32   byte = 3
	srecReserved byte = 4
	srecCount16  byte = 5
	srecCount24  byte = 6
	srecStart32  byte = 7
	srecStart24  byte = 8
	srecStart16  byte = 9

	// A data record's matching start record type is srecFlip minus the
	// data record type: S1<->S9, S2<->S8, S3<->S7.
	srecFlip byte = 10
)

// Address field width in bytes, indexed by record type.
var srecAddrLen = [srecFlip]int{2, 2, 3, 4, 0, 2, 3, 4, 3, 2}

var srecRecordRE = regexp.MustCompile(`S[0-9A-Fa-f]([0-9A-Fa-f]{2})+`)

// DecodeSRecord parses Motorola S formatted text into a fresh image.
// Lines without a recognizable record are skipped. Record count records
// are tolerated and never checked against the actual count.
func DecodeSRecord(text string, overwrite bool) (*Image, error) {
	img := NewImage()
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		loc := srecRecordRE.FindStringIndex(line)
		if loc == nil {
			continue
		}
		typ, addr, data, col, err := parseSRecord(line[loc[0]:loc[1]])
		if err != nil {
			return nil, &ContentError{
				Line:     lineNum,
				Column:   loc[0] + col,
				LineText: strings.TrimRight(line, " \t\r\n"),
				Err:      err,
			}
		}
		switch typ {
		case srecHeader:
			// A later header record replaces an earlier one from the
			// same input.
			img.header = [][]byte{data}
		case srecData16, srecData24, srecData32:
			seg, err := NewSegment(data, addr)
			if err != nil {
				return nil, err
			}
			if err := img.segments.Add(seg, overwrite); err != nil {
				return nil, err
			}
		case srecStart16, srecStart24, srecStart32:
			img.SetStartAddress(addr)
		}
		// Count records (S5/S6) are informational only.
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// parseSRecord decodes one matched record. The returned column is
// relative to the start of the record text.
func parseSRecord(rec string) (typ byte, addr uint32, data []byte, col int, err error) {
	// Prefixing the type nibble with a zero makes the whole record,
	// type included, decodable as hex byte pairs.
	record, decodeErr := hex.DecodeString("0" + rec[1:])
	if decodeErr != nil {
		return 0, 0, nil, 0, decodeErr
	}
	n := len(record)

	// The running sum of count+address+data+checksum must come out to
	// 0xFF; the leading type byte is excluded.
	sum := 0
	for _, b := range record[1:] {
		sum += int(b)
	}
	if sum&0xFF != 0xFF {
		checksum := record[n-1]
		expected := byte(((sum - int(checksum)) & 0xFF) ^ 0xFF)
		return 0, 0, nil, len(rec) - 2, &ChecksumError{Expected: expected, Actual: checksum}
	}

	count := record[1]
	if int(count) != n-2 {
		return 0, 0, nil, 2, &RecordLengthError{Expected: n - 2, Actual: int(count)}
	}

	typ = record[0]
	if typ == srecReserved || typ >= srecFlip {
		return 0, 0, nil, 0, &BadRecordTypeError{Type: typ}
	}
	addrLen := srecAddrLen[typ]
	if typ >= srecCount16 && int(count) != addrLen+1 {
		return 0, 0, nil, 2, &RecordTypeLengthError{Type: typ, Expected: addrLen + 1, Actual: int(count)}
	}

	addrEnd := min(2+addrLen, n-1)
	for _, b := range record[2:addrEnd] {
		addr = addr<<8 | uint32(b)
	}
	data = record[addrEnd : n-1]
	return typ, addr, data, 0, nil
}

// SRecordOptions controls the S-record writer.
type SRecordOptions struct {
	// BytesPerRecord is the data payload per record; 0 means
	// DefaultBytesPerRecord.
	BytesPerRecord int
	// RecordCount appends an S5/S6 record carrying the number of data
	// records written.
	RecordCount bool
}

// WriteSRecord emits the image as Motorola S records, choosing the
// narrowest address width that fits both the highest data address and
// the start address.
func (img *Image) WriteSRecord(w io.Writer, opts SRecordOptions) error {
	perRecord := opts.BytesPerRecord
	if perRecord <= 0 {
		perRecord = DefaultBytesPerRecord
	}
	bw := bufio.NewWriter(w)
	if len(img.header) > 0 {
		writeSRecordLine(bw, srecHeader, 0, img.Header())
	}
	var start uint64
	if img.startSet {
		start = uint64(img.start)
	}
	width := max(bits.Len64(img.segments.Hi()), bits.Len64(start))
	dataType := srecData32
	switch {
	case width <= 16:
		dataType = srecData16
	case width <= 24:
		dataType = srecData24
	}
	recordCount := 0
	for _, seg := range img.segments.All() {
		for _, sub := range seg.Split(perRecord) {
			writeSRecordLine(bw, dataType, sub.addr, sub.data)
			recordCount++
		}
	}
	if opts.RecordCount {
		countType := srecCount16
		if recordCount > 0xFFFF {
			countType = srecCount24
		}
		writeSRecordLine(bw, countType, uint32(recordCount), nil)
	}
	if img.startSet {
		writeSRecordLine(bw, srecFlip-dataType, img.start, nil)
	}
	return bw.Flush()
}

func writeSRecordLine(w io.Writer, typ byte, addr uint32, data []byte) {
	addrLen := srecAddrLen[typ]
	record := make([]byte, 0, 1+addrLen+len(data)+1)
	record = append(record, byte(addrLen+len(data)+1))
	for i := addrLen - 1; i >= 0; i-- {
		record = append(record, byte(addr>>(8*i)))
	}
	record = append(record, data...)
	sum := 0
	for _, b := range record {
		sum += int(b)
	}
	record = append(record, byte(sum&0xFF)^0xFF)
	fmt.Fprintf(w, "S%d%s\n", typ, strings.ToUpper(hex.EncodeToString(record)))
}
