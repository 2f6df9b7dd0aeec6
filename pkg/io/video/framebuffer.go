package video

import (
	"image"
)

// FrameBuffer keeps a reusable copy of the most recent stored frame. Storing
// a frame with the same geometry and format as the previous one does not
// allocate.
type FrameBuffer struct {
	buffer []uint8
	img    image.Image
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (b *FrameBuffer) storeInOrder(srcs ...[]uint8) []int {
	var needed int
	for _, src := range srcs {
		needed += len(src)
	}
	if cap(b.buffer) < needed {
		b.buffer = make([]uint8, needed)
	}
	b.buffer = b.buffer[:needed]

	offsets := make([]int, 0, len(srcs)+1)
	var current int
	for _, src := range srcs {
		offsets = append(offsets, current)
		copy(b.buffer[current:], src)
		current += len(src)
	}
	offsets = append(offsets, current)
	return offsets
}

// Load returns the currently stored frame.
func (b *FrameBuffer) Load() image.Image {
	return b.img
}

// StoreCopy copies src into the buffer, reusing memory from previous copies
// where possible. Formats without a dedicated path are converted to RGBA.
func (b *FrameBuffer) StoreCopy(src image.Image) {
	switch src := src.(type) {
	case *image.RGBA:
		clone, ok := b.img.(*image.RGBA)
		if !ok {
			clone = &image.RGBA{}
		}
		*clone = *src
		b.storeInOrder(src.Pix)
		clone.Pix = b.buffer[:len(src.Pix)]
		b.img = clone
	case *image.NRGBA:
		clone, ok := b.img.(*image.NRGBA)
		if !ok {
			clone = &image.NRGBA{}
		}
		*clone = *src
		b.storeInOrder(src.Pix)
		clone.Pix = b.buffer[:len(src.Pix)]
		b.img = clone
	case *image.Gray:
		clone, ok := b.img.(*image.Gray)
		if !ok {
			clone = &image.Gray{}
		}
		*clone = *src
		b.storeInOrder(src.Pix)
		clone.Pix = b.buffer[:len(src.Pix)]
		b.img = clone
	case *image.YCbCr:
		clone, ok := b.img.(*image.YCbCr)
		if !ok {
			clone = &image.YCbCr{}
		}
		*clone = *src
		offsets := b.storeInOrder(src.Y, src.Cb, src.Cr)
		clone.Y = b.buffer[offsets[0]:offsets[1]:offsets[1]]
		clone.Cb = b.buffer[offsets[1]:offsets[2]:offsets[2]]
		clone.Cr = b.buffer[offsets[2]:offsets[3]:offsets[3]]
		b.img = clone
	default:
		var converted image.RGBA
		toRGBA(&converted, src)
		b.StoreCopy(&converted)
	}
}
