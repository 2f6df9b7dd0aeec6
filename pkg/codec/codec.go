// Package codec defines the video encoder abstraction used by the capture
// branch and a name-based builder registry.
package codec

import "image"

// VideoEncoder encodes frames one at a time. Implementations are not safe
// for concurrent use; a pipeline drives one encoder from one goroutine.
type VideoEncoder interface {
	// Encode returns the encoded form of img. The returned slice is only
	// valid until the next call.
	Encode(img image.Image) ([]byte, error)
	Close() error
}

// Settings parametrizes an encoder for one stream.
type Settings struct {
	Width, Height int
	// BitRate is the encoder-specific target in bits per second.
	BitRate   int
	FrameRate float32
}

// VideoEncoderBuilder constructs an encoder for the given settings.
type VideoEncoderBuilder func(s Settings) (VideoEncoder, error)
