package memory

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Intel Hex record types.
const (
	ihexData         byte = 0
	ihexEndOfFile    byte = 1
	ihexExtSegAddr   byte = 2
	ihexStartSegAddr byte = 3
	ihexExtLinAddr   byte = 4
	ihexStartLinAddr byte = 5
	ihexUnsupported  byte = 6
)

// Required data byte count for the fixed-length record types.
var ihexTypeCount = map[byte]int{
	ihexEndOfFile:    0,
	ihexExtSegAddr:   2,
	ihexStartSegAddr: 4,
	ihexExtLinAddr:   2,
	ihexStartLinAddr: 4,
}

var ihexRecordRE = regexp.MustCompile(`:([0-9A-Fa-f]{2})+`)

// DecodeIntelHex parses Intel Hex formatted text into a fresh image.
// Lines without a recognizable record are skipped. An End Of File
// record is neither required nor required to be last.
func DecodeIntelHex(text string, overwrite bool) (*Image, error) {
	img := NewImage()
	var extended uint32
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		loc := ihexRecordRE.FindStringIndex(line)
		if loc == nil {
			continue
		}
		typ, addr, data, col, err := parseIntelHex(line[loc[0]:loc[1]])
		if err != nil {
			return nil, &ContentError{
				Line:     lineNum,
				Column:   loc[0] + col,
				LineText: strings.TrimRight(line, " \t\r\n"),
				Err:      err,
			}
		}
		switch typ {
		case ihexData:
			seg, err := NewSegment(data, extended+uint32(addr))
			if err != nil {
				return nil, err
			}
			if err := img.segments.Add(seg, overwrite); err != nil {
				return nil, err
			}
		case ihexExtSegAddr:
			extended = uint32(binary.BigEndian.Uint16(data)) << 4
		case ihexStartSegAddr:
			// The record carries an 8086 CS:IP pair; the entry point is
			// the physical address CS*16+IP.
			cs := uint32(binary.BigEndian.Uint16(data[:2]))
			ip := uint32(binary.BigEndian.Uint16(data[2:]))
			img.SetStartAddress(cs<<4 + ip)
		case ihexExtLinAddr:
			extended = uint32(binary.BigEndian.Uint16(data)) << 16
		case ihexStartLinAddr:
			img.SetStartAddress(binary.BigEndian.Uint32(data))
		}
		// End Of File records carry no information worth acting on.
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// parseIntelHex decodes one matched record. The returned column is
// relative to the start of the record text.
func parseIntelHex(rec string) (typ byte, addr uint16, data []byte, col int, err error) {
	record, decodeErr := hex.DecodeString(rec[1:])
	if decodeErr != nil {
		return 0, 0, nil, 0, decodeErr
	}
	n := len(record)

	// All record bytes, checksum included, must sum to zero mod 256.
	sum := 0
	for _, b := range record {
		sum += int(b)
	}
	if sum&0xFF != 0 {
		checksum := record[n-1]
		expected := byte((int(checksum) - sum) & 0xFF)
		return 0, 0, nil, len(rec) - 2, &ChecksumError{Expected: expected, Actual: checksum}
	}

	count := record[0]
	if n < 5 || int(count) != n-5 {
		return 0, 0, nil, 1, &RecordLengthError{Expected: n - 5, Actual: int(count)}
	}

	typ = record[3]
	if typ >= ihexUnsupported {
		return 0, 0, nil, 7, &BadRecordTypeError{Type: typ}
	}
	if typ != ihexData {
		if expected := ihexTypeCount[typ]; int(count) != expected {
			return 0, 0, nil, 1, &RecordTypeLengthError{Type: typ, Expected: expected, Actual: int(count)}
		}
	}

	addr = binary.BigEndian.Uint16(record[1:3])
	data = record[4 : n-1]
	return typ, addr, data, 0, nil
}

// WriteIntelHex emits the image as Intel Hex records. An Extended
// Linear Address record is written whenever the high 16 address bits of
// the next data record differ from the running extended address.
func (img *Image) WriteIntelHex(w io.Writer, bytesPerRecord int) error {
	if bytesPerRecord <= 0 {
		bytesPerRecord = DefaultBytesPerRecord
	}
	bw := bufio.NewWriter(w)
	var extended uint32
	for _, seg := range img.segments.All() {
		for _, sub := range seg.Split(bytesPerRecord) {
			if hi := sub.addr >> 16; hi != extended {
				extended = hi
				var word [2]byte
				binary.BigEndian.PutUint16(word[:], uint16(hi))
				writeIntelHexLine(bw, ihexExtLinAddr, 0, word[:])
			}
			writeIntelHexLine(bw, ihexData, uint16(sub.addr&0xFFFF), sub.data)
		}
	}
	if img.startSet {
		var word [4]byte
		binary.BigEndian.PutUint32(word[:], img.start)
		writeIntelHexLine(bw, ihexStartLinAddr, 0, word[:])
	}
	writeIntelHexLine(bw, ihexEndOfFile, 0, nil)
	return bw.Flush()
}

func writeIntelHexLine(w io.Writer, typ byte, addr uint16, data []byte) {
	record := make([]byte, 0, 4+len(data)+1)
	record = append(record, byte(len(data)), byte(addr>>8), byte(addr), typ)
	record = append(record, data...)
	sum := 0
	for _, b := range record {
		sum += int(b)
	}
	record = append(record, byte(-sum&0xFF))
	fmt.Fprintf(w, ":%s\n", strings.ToUpper(hex.EncodeToString(record)))
}
