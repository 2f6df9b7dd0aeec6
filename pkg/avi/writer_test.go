package avi

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/vidpipe/vidpipe/pkg/caps"
)

func writeTestFile(t *testing.T, frames ...[]byte) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.avi")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := NewWriter(f, 640, 480, caps.Fraction{Num: 30, Denom: 1})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, frame := range frames {
		if err := w.WriteFrame(frame); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func u32At(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off:])
}

func TestWriterLayout(t *testing.T) {
	// Second frame has odd length to exercise chunk padding.
	data := writeTestFile(t, []byte{0xff, 0xd8, 0xff, 0xd9}, []byte{0xff, 0xd8, 0xd9})

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("bad RIFF header: %q %q", data[0:4], data[8:12])
	}
	if got := u32At(data, 4); got != uint32(len(data)-8) {
		t.Errorf("riff size = %d, want %d", got, len(data)-8)
	}

	// avih dwTotalFrames and strh dwLength are patched on Close.
	if got := u32At(data, 48); got != 2 {
		t.Errorf("total frames = %d, want 2", got)
	}
	if got := u32At(data, 140); got != 2 {
		t.Errorf("stream length = %d, want 2", got)
	}

	if string(data[212:216]) != "LIST" || string(data[220:224]) != "movi" {
		t.Fatalf("movi list not at expected offset: %q %q", data[212:216], data[220:224])
	}

	// movi: 4 ('movi') + (8+4) + (8+3+1 pad) = 28
	if got := u32At(data, 216); got != 28 {
		t.Errorf("movi size = %d, want 28", got)
	}
	if string(data[224:228]) != "00dc" {
		t.Fatalf("first chunk fourcc = %q", data[224:228])
	}
}

func TestWriterIndex(t *testing.T) {
	data := writeTestFile(t, []byte{1, 2, 3, 4}, []byte{5, 6, 7})

	// idx1 follows the movi list.
	idx := 224 + 12 + 12 // two chunks: 8+4 and 8+3+1
	if string(data[idx:idx+4]) != "idx1" {
		t.Fatalf("idx1 fourcc not found at %d: %q", idx, data[idx:idx+4])
	}
	if got := u32At(data, idx+4); got != 32 {
		t.Errorf("idx1 size = %d, want 32", got)
	}

	first := idx + 8
	if string(data[first:first+4]) != "00dc" {
		t.Errorf("index entry fourcc = %q", data[first:first+4])
	}
	if got := u32At(data, first+4); got != aviifKeyframe {
		t.Errorf("index flags = %#x, want keyframe", got)
	}
	if got := u32At(data, first+8); got != 4 {
		t.Errorf("first entry offset = %d, want 4", got)
	}
	if got := u32At(data, first+12); got != 4 {
		t.Errorf("first entry size = %d, want 4", got)
	}

	second := first + 16
	if got := u32At(data, second+8); got != 16 {
		t.Errorf("second entry offset = %d, want 16", got)
	}
	if got := u32At(data, second+12); got != 3 {
		t.Errorf("second entry size = %d, want 3", got)
	}
}

func TestWriterRejectsBadParams(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.avi"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewWriter(f, 0, 480, caps.Fraction{Num: 30, Denom: 1}); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewWriter(f, 640, 480, caps.Fraction{}); err == nil {
		t.Error("expected error for zero rate")
	}
}

func TestWriterClosed(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.avi"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := NewWriter(f, 640, 480, caps.Fraction{Num: 30, Denom: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame([]byte{1}); err == nil {
		t.Error("expected error writing to closed writer")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
