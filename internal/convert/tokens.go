package convert

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/seastrand/hexcat/pkg/memory"
)

// Filename extensions mapped to input/output formats. Anything else
// renders as a hex dump.
var (
	binExtensions  = []string{"bin", "dat", "raw"}
	ihexExtensions = []string{
		"a43", "a90", "h86", "hex", "hxh", "hxl",
		"ihe", "ihex", "ihx", "mcs", "obh", "obl",
	}
	srecExtensions = []string{
		"exo", "mot", "mxt", "s", "s1", "s19",
		"s2", "s28", "s3", "s37", "srec", "sx",
	}

	// pXX-style extensions (two hex digits) are an Intel Hex convention
	// for paged images.
	pagedExtensionRE = regexp.MustCompile(`^p[0-9A-Fa-f]{2}$`)
)

// FormatFromExtension infers the output format from a filename.
func FormatFromExtension(filename string) memory.Format {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	switch {
	case contains(binExtensions, ext):
		return memory.FormatBinary
	case contains(srecExtensions, ext):
		return memory.FormatSRecord
	case contains(ihexExtensions, ext), pagedExtensionRE.MatchString(ext):
		return memory.FormatIntelHex
	default:
		return memory.FormatHexDump
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseAddr parses a bare hex address and checks it fits 32 bits.
func parseAddr(text string) (uint32, error) {
	v, err := strconv.ParseUint(text, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", text, err)
	}
	if v >= 1<<32 {
		return 0, fmt.Errorf("address %#x outside 32-bit range: %w", v, memory.ErrAddressRange)
	}
	return uint32(v), nil
}

// SplitInputToken splits an `infile[@ADDR]` token into the filename and
// the optional relocation address.
func SplitInputToken(token string) (name string, addr uint32, hasAddr bool, err error) {
	token = strings.TrimSpace(token)
	at := strings.LastIndex(token, "@")
	if at <= 0 {
		return token, 0, false, nil
	}
	addrText := token[at+1:]
	if !isHex(addrText) {
		// An @ inside the filename itself, not a relocation suffix.
		return token, 0, false, nil
	}
	addr, err = parseAddr(addrText)
	if err != nil {
		return "", 0, false, err
	}
	return token[:at], addr, true, nil
}

// ParseDataToken parses a `DATA[@ADDR]` token into raw bytes and the
// target address (0 when omitted). With littleEndian the byte order of
// DATA is reversed, so the token reads as a little-endian value.
func ParseDataToken(token string, littleEndian bool) ([]byte, uint32, error) {
	token = strings.TrimSpace(token)
	dataText := token
	addrText := ""
	if at := strings.Index(token, "@"); at >= 0 {
		dataText, addrText = token[:at], token[at+1:]
	}
	if len(dataText)%2 != 0 {
		return nil, 0, fmt.Errorf("invalid data %q: odd number of hex digits", dataText)
	}
	data, err := hex.DecodeString(dataText)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid data %q: %w", dataText, err)
	}
	if littleEndian {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	var addr uint32
	if addrText != "" {
		if addr, err = parseAddr(addrText); err != nil {
			return nil, 0, err
		}
	}
	return data, addr, nil
}

// ParseRangeToken parses `ADDR-ADDR` (inclusive on both ends) or a bare
// `ADDR` (a single-byte range) into a half-open [lo, hi) window.
func ParseRangeToken(token string) (lo, hi uint64, err error) {
	token = strings.TrimSpace(token)
	loText, hiText := token, token
	if dash := strings.Index(token, "-"); dash >= 0 {
		loText, hiText = token[:dash], token[dash+1:]
	}
	loAddr, err := parseAddr(loText)
	if err != nil {
		return 0, 0, err
	}
	hiAddr, err := parseAddr(hiText)
	if err != nil {
		return 0, 0, err
	}
	if uint64(hiAddr) < uint64(loAddr) {
		return 0, 0, fmt.Errorf("invalid range %q: end below start", token)
	}
	return uint64(loAddr), uint64(hiAddr) + 1, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
