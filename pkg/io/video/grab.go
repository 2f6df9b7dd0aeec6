package video

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/vidpipe/vidpipe/internal/logging"
)

var grabLogger = logging.NewLogger("video")

// Grab returns a tap stage invoking onFrame for every frame passing through.
// The callback receives an isolated copy it may retain or mutate freely. A
// panic inside the callback is logged and the frame is forwarded unchanged;
// the tap never interrupts the stream.
func Grab(onFrame func(img *image.NRGBA)) TransformFunc {
	if onFrame == nil {
		return nil
	}

	return func(r Reader) Reader {
		deliver := func(img image.Image) {
			defer func() {
				if r := recover(); r != nil {
					grabLogger.Errorf("frame grab callback panicked: %v", r)
				}
			}()
			onFrame(imaging.Clone(img))
		}

		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}
			deliver(img)
			return img, release, nil
		})
	}
}
