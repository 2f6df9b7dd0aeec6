package frame

import (
	"fmt"
	"image"
)

func decodeI420(frame []byte, width, height int) (image.Image, func(), error) {
	yi := width * height
	cbi := yi + width*height/4
	cri := cbi + width*height/4

	if cri > len(frame) {
		return nil, func() {}, fmt.Errorf("frame: I420 frame length (%d) less than expected (%d)",
			len(frame), cri)
	}

	return &image.YCbCr{
		Y:              frame[:yi],
		YStride:        width,
		Cb:             frame[yi:cbi],
		Cr:             frame[cbi:cri],
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

func decodeNV21(frame []byte, width, height int) (image.Image, func(), error) {
	yi := width * height
	ci := yi + width*height/2

	if ci > len(frame) {
		return nil, func() {}, fmt.Errorf("frame: NV21 frame length (%d) less than expected (%d)",
			len(frame), ci)
	}

	cb := make([]byte, 0, (ci-yi)/2)
	cr := make([]byte, 0, (ci-yi)/2)
	for i := yi; i < ci; i += 2 {
		cr = append(cr, frame[i])
		cb = append(cb, frame[i+1])
	}

	return &image.YCbCr{
		Y:              frame[:yi],
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

// decodePacked422 splits interleaved 4:2:2 layouts. yOff is the byte offset
// of the first luma sample within each 4 byte group (0 for YUY2, 1 for UYVY).
func decodePacked422(frame []byte, width, height, yOff int) (image.Image, func(), error) {
	yi := width * height
	ci := yi / 2
	fi := yi + 2*ci

	if len(frame) < fi {
		return nil, func() {}, fmt.Errorf("frame: 4:2:2 frame length (%d) less than expected (%d)",
			len(frame), fi)
	}

	y := make([]byte, yi)
	cb := make([]byte, ci)
	cr := make([]byte, ci)

	cOff := 1 - yOff
	fast := 0
	slow := 0
	for i := 0; i < fi; i += 4 {
		y[fast] = frame[i+yOff]
		y[fast+1] = frame[i+2+yOff]
		cb[slow] = frame[i+cOff]
		cr[slow] = frame[i+2+cOff]
		fast += 2
		slow++
	}

	return &image.YCbCr{
		Y:              y,
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio422,
		Rect:           image.Rect(0, 0, width, height),
	}, func() {}, nil
}

func decodeYUY2(frame []byte, width, height int) (image.Image, func(), error) {
	return decodePacked422(frame, width, height, 0)
}

func decodeUYVY(frame []byte, width, height int) (image.Image, func(), error) {
	return decodePacked422(frame, width, height, 1)
}
