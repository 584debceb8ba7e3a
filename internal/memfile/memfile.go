// Package memfile loads whole input files into memory for decoding.
// Images are decoded from a complete byte slice, never streamed, so the
// loader maps the file read-only where mmap is available and falls back
// to a plain read otherwise.
package memfile

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only view of an input file's entire content.
type File struct {
	Data    []byte
	mmapped bool
}

// Open loads path. The returned file must be closed to release any
// mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%s: file too large to load", path)
	}
	size := int(size64)
	if size == 0 {
		return &File{Data: []byte{}}, nil
	}

	// Zero-copy where the platform allows it.
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases the mapping, if any. Data must not be used afterwards.
func (f *File) Close() error {
	if !f.mmapped {
		return nil
	}
	data := f.Data
	f.Data = nil
	f.mmapped = false
	return unix.Munmap(data)
}
