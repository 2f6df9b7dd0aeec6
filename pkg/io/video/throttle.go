package video

import (
	"image"
	"time"
)

// Throttle returns a rate-normalizing transform. Incoming frames are dropped
// as needed so that downstream sees at most the given rate in frames per
// second. A rate of zero or less is a passthrough.
func Throttle(rate float32) TransformFunc {
	if rate <= 0 {
		return nil
	}

	return func(r Reader) Reader {
		interval := time.Duration(float64(time.Second) / float64(rate))
		ticker := time.NewTicker(interval)
		return ReaderFunc(func() (image.Image, func(), error) {
			for {
				img, release, err := r.Read()
				if err != nil {
					ticker.Stop()
					return nil, func() {}, err
				}
				select {
				case <-ticker.C:
					return img, release, nil
				default:
					if release != nil {
						release()
					}
				}
			}
		})
	}
}
