// Package frame decodes raw device frames into image.Image values.
package frame

import "image"

// Decoder turns one raw frame buffer into an image. The returned release
// function must be called once the image is no longer referenced; decoders
// that allocate per call return a no-op.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, func(), error)
}

type decoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

func (f decoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}
