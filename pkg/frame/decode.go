package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// NewDecoder returns a decoder for the given format, or an error if the
// format has no pure Go decoding path.
func NewDecoder(f Format) (Decoder, error) {
	var decoder decoderFunc

	switch f {
	case FormatI420:
		decoder = decodeI420
	case FormatNV21:
		decoder = decodeNV21
	case FormatYUY2:
		decoder = decodeYUY2
	case FormatUYVY:
		decoder = decodeUYVY
	case FormatRGBA:
		decoder = decodeRGBA
	case FormatMJPEG:
		decoder = decodeMJPEG
	default:
		return nil, fmt.Errorf("frame: format %s is not supported", f)
	}

	return decoder, nil
}

func decodeRGBA(frame []byte, width, height int) (image.Image, func(), error) {
	expected := 4 * width * height
	if len(frame) < expected {
		return nil, func() {}, fmt.Errorf("frame: RGBA frame length (%d) less than expected (%d)",
			len(frame), expected)
	}

	return &image.RGBA{
		Pix:    frame[:expected],
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, func() {}, nil
}

func decodeMJPEG(frame []byte, width, height int) (image.Image, func(), error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, func() {}, fmt.Errorf("frame: MJPEG decode: %w", err)
	}
	return img, func() {}, nil
}
