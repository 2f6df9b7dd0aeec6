package frame

import (
	"image"
	"testing"
)

func TestDecodeYUY2(t *testing.T) {
	// One 2x2 frame: two luma pairs sharing one chroma sample each.
	raw := []byte{
		0x10, 0x80, 0x20, 0x90,
		0x30, 0xa0, 0x40, 0xb0,
	}

	decoder, err := NewDecoder(FormatYUY2)
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := decoder.Decode(raw, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	ycbcr, ok := img.(*image.YCbCr)
	if !ok {
		t.Fatalf("expected *image.YCbCr, got %T", img)
	}
	if ycbcr.SubsampleRatio != image.YCbCrSubsampleRatio422 {
		t.Errorf("expected 4:2:2 subsampling, got %v", ycbcr.SubsampleRatio)
	}
	expectedY := []byte{0x10, 0x20, 0x30, 0x40}
	for i, y := range expectedY {
		if ycbcr.Y[i] != y {
			t.Errorf("Y[%d] = %#x, expected %#x", i, ycbcr.Y[i], y)
		}
	}
	if ycbcr.Cb[0] != 0x80 || ycbcr.Cr[0] != 0x90 {
		t.Errorf("first chroma pair = %#x/%#x, expected 0x80/0x90", ycbcr.Cb[0], ycbcr.Cr[0])
	}
}

func TestDecodeUYVY(t *testing.T) {
	raw := []byte{
		0x80, 0x10, 0x90, 0x20,
		0xa0, 0x30, 0xb0, 0x40,
	}

	decoder, err := NewDecoder(FormatUYVY)
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := decoder.Decode(raw, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	ycbcr := img.(*image.YCbCr)
	if ycbcr.Y[0] != 0x10 || ycbcr.Y[1] != 0x20 {
		t.Errorf("luma = %#x, %#x, expected 0x10, 0x20", ycbcr.Y[0], ycbcr.Y[1])
	}
	if ycbcr.Cb[0] != 0x80 || ycbcr.Cr[0] != 0x90 {
		t.Errorf("first chroma pair = %#x/%#x, expected 0x80/0x90", ycbcr.Cb[0], ycbcr.Cr[0])
	}
}

func TestDecodeShortFrame(t *testing.T) {
	for _, format := range []Format{FormatI420, FormatNV21, FormatYUY2, FormatUYVY, FormatRGBA} {
		decoder, err := NewDecoder(format)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := decoder.Decode(make([]byte, 8), 64, 64); err == nil {
			t.Errorf("%s: expected error for truncated frame", format)
		}
	}
}

func TestNewDecoderUnsupported(t *testing.T) {
	if _, err := NewDecoder(Format("BGRX")); err == nil {
		t.Error("expected error for unsupported format")
	}
}
