package memory

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const dumpRowBytes = 16

// WriteHexDump renders the image as a human-readable hex dump: one
// 16-byte row per line with the address, the bytes in two groups of
// eight, and an ASCII gutter.
func (img *Image) WriteHexDump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, seg := range img.segments.All() {
		for _, row := range seg.Split(dumpRowBytes) {
			fmt.Fprintln(bw, dumpRow(row.addr, row.data))
		}
	}
	return bw.Flush()
}

func dumpRow(addr uint32, data []byte) string {
	var hexCol strings.Builder
	var asciiCol strings.Builder
	for i, b := range data {
		if i > 0 {
			hexCol.WriteByte(' ')
		}
		fmt.Fprintf(&hexCol, "%02x", b)
		if b >= 0x20 && b <= 0x7E {
			asciiCol.WriteByte(b)
		} else {
			asciiCol.WriteByte('.')
		}
	}
	// 16 bytes render as 47 hex characters; shorter rows are padded so
	// the ASCII gutter stays aligned.
	padded := fmt.Sprintf("%-47s", hexCol.String())
	return fmt.Sprintf("%08x  %s %s  |%s|", addr, padded[:24], padded[24:], asciiCol.String())
}
