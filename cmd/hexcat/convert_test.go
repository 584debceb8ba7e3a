package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seastrand/hexcat/pkg/memory"
)

func TestResolveOutputFormat(t *testing.T) {
	cases := []struct {
		name                      string
		srec, ihex, binary, count bool
		output, configured        string
		want                      memory.Format
	}{
		{name: "srec flag", srec: true, want: memory.FormatSRecord},
		{name: "srec with record count", srec: true, count: true, want: memory.FormatSRecCount},
		{name: "count without srec is ignored", count: true, want: memory.FormatHexDump},
		{name: "ihex flag", ihex: true, want: memory.FormatIntelHex},
		{name: "binary flag", binary: true, want: memory.FormatBinary},
		{name: "flag beats extension", ihex: true, output: "out.srec", want: memory.FormatIntelHex},
		{name: "extension srec", output: "out.s19", want: memory.FormatSRecord},
		{name: "extension ihex", output: "out.hex", want: memory.FormatIntelHex},
		{name: "extension bin", output: "out.bin", want: memory.FormatBinary},
		{name: "unknown extension dumps", output: "out.txt", want: memory.FormatHexDump},
		{name: "config default", configured: "ihex", want: memory.FormatIntelHex},
		{name: "extension beats config", output: "out.bin", configured: "ihex", want: memory.FormatBinary},
		{name: "stdout default dumps", want: memory.FormatHexDump},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveOutputFormat(tc.srec, tc.ihex, tc.binary, tc.count, tc.output, tc.configured)
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func testImage(t *testing.T) *memory.Image {
	t.Helper()
	img, err := memory.Decode([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func TestWriteOutput(t *testing.T) {
	t.Run("creates the output file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.hex")
		if err := writeOutput(testImage(t), path, memory.FormatIntelHex, false, 16); err != nil {
			t.Fatalf("writeOutput: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if !strings.HasPrefix(string(data), ":") || !strings.Contains(string(data), ":00000001FF") {
			t.Fatalf("output: %q", data)
		}
	})

	t.Run("refuses to replace without overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.hex")
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("seed output: %v", err)
		}
		err := writeOutput(testImage(t), path, memory.FormatIntelHex, false, 16)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("err: %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "old" {
			t.Fatalf("existing file was clobbered: %q", data)
		}
	})

	t.Run("overwrite replaces the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.bin")
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("seed output: %v", err)
		}
		if err := writeOutput(testImage(t), path, memory.FormatBinary, true, 16); err != nil {
			t.Fatalf("writeOutput: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if string(data) != "\xde\xad\xbe\xef\x00" {
			t.Fatalf("output: % x", data)
		}
	})
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.bin")
	if err := os.WriteFile(path, []byte("ABCD"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	t.Run("plain file", func(t *testing.T) {
		inputs, err := loadInputs([]string{path})
		if err != nil {
			t.Fatalf("loadInputs: %v", err)
		}
		if len(inputs) != 1 || string(inputs[0].Data) != "ABCD" || inputs[0].Relocate {
			t.Fatalf("inputs: %+v", inputs)
		}
	})

	t.Run("relocation suffix", func(t *testing.T) {
		inputs, err := loadInputs([]string{path + "@8000"})
		if err != nil {
			t.Fatalf("loadInputs: %v", err)
		}
		if !inputs[0].Relocate || inputs[0].Offset != 0x8000 {
			t.Fatalf("inputs: %+v", inputs)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadInputs([]string{filepath.Join(dir, "nope.bin")}); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
