package video

import (
	"image"
	"sync"
)

// Broadcaster fans one source out to any number of downstream branches, the
// way a tee element does. The source is pulled on demand: the first branch
// that needs a new frame advances the stream, the others receive the cached
// frame. A slow branch therefore skips frames instead of stalling the source.
type Broadcaster struct {
	mu     sync.Mutex
	source Reader
	seq    uint64
	img    image.Image
	err    error
}

// NewBroadcaster creates a broadcaster pulling from source.
func NewBroadcaster(source Reader) *Broadcaster {
	return &Broadcaster{source: source}
}

// NewReader creates a new branch reader. Delivered frames are owned by the
// broadcaster and stay valid after the source reuses its buffers, but are
// shared across branches and must be treated as read-only. With copyFrame
// set, the branch instead gets an isolated copy it may mutate, valid until
// its next Read.
func (b *Broadcaster) NewReader(copyFrame bool) Reader {
	var buffer *FrameBuffer
	if copyFrame {
		buffer = NewFrameBuffer()
	}

	var seen uint64
	return ReaderFunc(func() (image.Image, func(), error) {
		b.mu.Lock()
		if seen == b.seq {
			// This branch has consumed the cached frame; advance the source.
			img, release, err := b.source.Read()
			if err == nil {
				// Own the pixels before handing the buffer back: sources
				// like the camera driver reuse theirs after release, and
				// branches read the cached frame outside this lock.
				img = cloneImage(img)
			}
			if release != nil {
				release()
			}
			b.img, b.err = img, err
			b.seq++
		}
		img, err := b.img, b.err
		seen = b.seq
		b.mu.Unlock()

		if err != nil {
			return nil, func() {}, err
		}
		if buffer != nil {
			buffer.StoreCopy(img)
			img = buffer.Load()
		}
		return img, func() {}, nil
	})
}

// Source returns the current upstream reader.
func (b *Broadcaster) Source() Reader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.source
}

// cloneImage returns a freshly allocated deep copy of src. Formats without
// a dedicated path are converted to RGBA.
func cloneImage(src image.Image) image.Image {
	switch v := src.(type) {
	case *image.RGBA:
		out := *v
		out.Pix = append([]uint8(nil), v.Pix...)
		return &out
	case *image.NRGBA:
		out := *v
		out.Pix = append([]uint8(nil), v.Pix...)
		return &out
	case *image.Gray:
		out := *v
		out.Pix = append([]uint8(nil), v.Pix...)
		return &out
	case *image.YCbCr:
		out := *v
		out.Y = append([]uint8(nil), v.Y...)
		out.Cb = append([]uint8(nil), v.Cb...)
		out.Cr = append([]uint8(nil), v.Cr...)
		return &out
	default:
		var dst image.RGBA
		toRGBA(&dst, src)
		return &dst
	}
}
