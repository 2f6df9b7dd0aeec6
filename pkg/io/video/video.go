// Package video provides pull-based readers and composable transforms for
// video frames.
package video

import (
	"image"
)

// Reader is the pull interface every stage consumes and produces. release
// must be called when the returned image is no longer referenced so that
// pooling stages can reuse buffers.
type Reader interface {
	Read() (img image.Image, release func(), err error)
}

// ReaderFunc is an adapter to allow the use of ordinary functions as Readers.
type ReaderFunc func() (img image.Image, release func(), err error)

func (rf ReaderFunc) Read() (img image.Image, release func(), err error) {
	img, release, err = rf()
	return
}

// TransformFunc produces a new Reader that will produce transformed frames.
type TransformFunc func(r Reader) Reader

// Merge merges transforms and produces a new TransformFunc that will execute
// transforms in order. Nil entries are skipped, so an absent optional stage
// leaves the chain tail unchanged.
func Merge(transforms ...TransformFunc) TransformFunc {
	return func(r Reader) Reader {
		for _, transform := range transforms {
			if transform == nil {
				continue
			}

			r = transform(r)
		}

		return r
	}
}
