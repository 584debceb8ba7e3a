package memory

import (
	"bytes"
	"errors"
	"testing"
)

func TestImageMergeStartAddress(t *testing.T) {
	newImageWithStart := func(addr uint32) *Image {
		img := NewImage()
		img.SetStartAddress(addr)
		return img
	}

	t.Run("first start wins by default", func(t *testing.T) {
		agg := NewImage()
		if err := agg.Merge(newImageWithStart(0x1000), false, false); err != nil {
			t.Fatalf("first merge: %v", err)
		}
		if got, ok := agg.StartAddress(); !ok || got != 0x1000 {
			t.Fatalf("start: got %#x ok=%v", got, ok)
		}
	})

	t.Run("equal start addresses agree", func(t *testing.T) {
		agg := newImageWithStart(0x1000)
		if err := agg.Merge(newImageWithStart(0x1000), false, false); err != nil {
			t.Fatalf("merge: %v", err)
		}
	})

	t.Run("conflicting starts fail", func(t *testing.T) {
		agg := newImageWithStart(0x1000)
		err := agg.Merge(newImageWithStart(0x2000), false, false)
		var conflict *StartConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected StartConflictError, got %v", err)
		}
		if conflict.Old != 0x1000 || conflict.New != 0x2000 {
			t.Fatalf("conflict detail: %+v", conflict)
		}
	})

	t.Run("last start wins when requested", func(t *testing.T) {
		agg := newImageWithStart(0x1000)
		if err := agg.Merge(newImageWithStart(0x2000), false, true); err != nil {
			t.Fatalf("merge: %v", err)
		}
		if got, _ := agg.StartAddress(); got != 0x2000 {
			t.Fatalf("start: got %#x want 0x2000", got)
		}
	})

	t.Run("merge without start keeps existing", func(t *testing.T) {
		agg := newImageWithStart(0x1000)
		if err := agg.Merge(NewImage(), false, true); err != nil {
			t.Fatalf("merge: %v", err)
		}
		if got, ok := agg.StartAddress(); !ok || got != 0x1000 {
			t.Fatalf("start: got %#x ok=%v", got, ok)
		}
	})
}

func TestImageMergeSegmentsAndHeader(t *testing.T) {
	a := NewImage()
	a.extendHeader([]byte("first"))
	_ = a.AddSegment(mustSegment(t, seq(0, 4), 0x100), false)

	b := NewImage()
	b.extendHeader([]byte("second"))
	_ = b.AddSegment(mustSegment(t, seq(4, 4), 0x104), false)

	if err := a.Merge(b, false, false); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := a.Header(); !bytes.Equal(got, []byte("first\tsecond")) {
		t.Fatalf("header: got %q", got)
	}
	if a.Segments().Len() != 1 || a.Segments().Span() != 8 {
		t.Fatalf("segments: len %d span %d", a.Segments().Len(), a.Segments().Span())
	}

	// Re-merging an image with a header already present moves it to the
	// end instead of duplicating it.
	c := NewImage()
	c.extendHeader([]byte("first"))
	if err := a.Merge(c, false, false); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := a.Header(); !bytes.Equal(got, []byte("second\tfirst")) {
		t.Fatalf("header after re-merge: got %q", got)
	}
}

func TestImageIsEmpty(t *testing.T) {
	img := NewImage()
	if !img.IsEmpty() {
		t.Fatal("new image should be empty")
	}
	_ = img.AddSegment(mustSegment(t, []byte{1}, 0), false)
	if img.IsEmpty() {
		t.Fatal("image with data should not be empty")
	}
}

func TestImageMoveTo(t *testing.T) {
	img := NewImage()
	_ = img.AddSegment(mustSegment(t, seq(0, 4), 0), false)
	if err := img.MoveTo(0x8000); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if img.Segments().Lo() != 0x8000 {
		t.Fatalf("lo: got %#x want 0x8000", img.Segments().Lo())
	}
}
