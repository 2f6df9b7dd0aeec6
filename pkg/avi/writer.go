// Package avi implements a minimal RIFF/AVI container writer for MJPEG
// streams, enough to make capture files playable by common players.
package avi

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vidpipe/vidpipe/pkg/caps"
)

const (
	avifHasIndex    = 0x00000010
	avifTrustCkType = 0x00000800

	aviifKeyframe = 0x00000010
)

type indexEntry struct {
	offset uint32
	size   uint32
}

// Writer writes one MJPEG video stream into an AVI file. Close finalizes
// the headers and the idx1 index; a file abandoned before Close is not a
// valid AVI.
type Writer struct {
	w      io.WriteSeeker
	width  int
	height int
	fps    caps.Fraction

	riffSizePos    int64
	totalFramesPos int64
	streamLenPos   int64
	moviSizePos    int64
	moviStart      int64

	index  []indexEntry
	frames uint32
	closed bool
	err    error
}

// NewWriter writes the AVI headers for a stream of the given geometry and
// rate onto w.
func NewWriter(w io.WriteSeeker, width, height int, fps caps.Fraction) (*Writer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("avi: invalid frame size %dx%d", width, height)
	}
	if fps.Num <= 0 || fps.Denom <= 0 {
		return nil, fmt.Errorf("avi: invalid frame rate %s", fps)
	}

	aw := &Writer{w: w, width: width, height: height, fps: fps}
	if err := aw.writeHeaders(); err != nil {
		return nil, err
	}
	return aw, nil
}

func (a *Writer) writeHeaders() error {
	usPerFrame := uint32(1e6 * float64(a.fps.Denom) / float64(a.fps.Num))

	a.fourcc("RIFF")
	a.riffSizePos = a.pos()
	a.u32(0) // patched on Close
	a.fourcc("AVI ")

	// hdrl: one avih, one video strl
	a.fourcc("LIST")
	a.u32(4 + 64 + 124)
	a.fourcc("hdrl")

	a.fourcc("avih")
	a.u32(56)
	a.u32(usPerFrame)
	a.u32(0) // max bytes per second
	a.u32(0) // padding granularity
	a.u32(avifHasIndex | avifTrustCkType)
	a.totalFramesPos = a.pos()
	a.u32(0) // total frames, patched on Close
	a.u32(0) // initial frames
	a.u32(1) // streams
	a.u32(0) // suggested buffer size
	a.u32(uint32(a.width))
	a.u32(uint32(a.height))
	for i := 0; i < 4; i++ {
		a.u32(0) // reserved
	}

	a.fourcc("LIST")
	a.u32(4 + 64 + 48)
	a.fourcc("strl")

	a.fourcc("strh")
	a.u32(56)
	a.fourcc("vids")
	a.fourcc("MJPG")
	a.u32(0) // flags
	a.u16(0) // priority
	a.u16(0) // language
	a.u32(0) // initial frames
	a.u32(uint32(a.fps.Denom)) // scale
	a.u32(uint32(a.fps.Num))   // rate; rate/scale = fps
	a.u32(0)                   // start
	a.streamLenPos = a.pos()
	a.u32(0)          // length in frames, patched on Close
	a.u32(0)          // suggested buffer size
	a.u32(0xffffffff) // quality: default
	a.u32(0)          // sample size: varying
	a.u16(0)          // rcFrame
	a.u16(0)
	a.u16(uint16(a.width))
	a.u16(uint16(a.height))

	// strf: BITMAPINFOHEADER
	a.fourcc("strf")
	a.u32(40)
	a.u32(40) // biSize
	a.u32(uint32(a.width))
	a.u32(uint32(a.height))
	a.u16(1)  // planes
	a.u16(24) // bit count
	a.fourcc("MJPG")
	a.u32(uint32(3 * a.width * a.height)) // image size
	a.u32(0)                              // x pels per meter
	a.u32(0)                              // y pels per meter
	a.u32(0)                              // colors used
	a.u32(0)                              // colors important

	a.fourcc("LIST")
	a.moviSizePos = a.pos()
	a.u32(0) // patched on Close
	a.fourcc("movi")
	a.moviStart = a.pos()

	return a.err
}

// WriteFrame appends one encoded MJPEG frame. Every MJPEG frame is a
// keyframe.
func (a *Writer) WriteFrame(data []byte) error {
	if a.closed {
		return fmt.Errorf("avi: writer is closed")
	}
	if a.err != nil {
		return a.err
	}

	// idx1 offsets are relative to the 'movi' fourcc.
	offset := uint32(a.pos()-a.moviStart) + 4

	a.fourcc("00dc")
	a.u32(uint32(len(data)))
	a.bytes(data)
	if len(data)%2 == 1 {
		a.bytes([]byte{0}) // chunks are word aligned
	}
	if a.err != nil {
		return a.err
	}

	a.index = append(a.index, indexEntry{offset: offset, size: uint32(len(data))})
	a.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (a *Writer) Frames() int {
	return int(a.frames)
}

// Close writes the index and patches the header sizes. The underlying
// writer is not closed.
func (a *Writer) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.err != nil {
		return a.err
	}

	moviEnd := a.pos()

	a.fourcc("idx1")
	a.u32(uint32(16 * len(a.index)))
	for _, entry := range a.index {
		a.fourcc("00dc")
		a.u32(aviifKeyframe)
		a.u32(entry.offset)
		a.u32(entry.size)
	}
	fileEnd := a.pos()

	a.patch(a.riffSizePos, uint32(fileEnd-8))
	a.patch(a.totalFramesPos, a.frames)
	a.patch(a.streamLenPos, a.frames)
	a.patch(a.moviSizePos, uint32(moviEnd-a.moviStart)+4)
	if a.err != nil {
		return a.err
	}

	_, err := a.w.Seek(fileEnd, io.SeekStart)
	return err
}

// low level helpers; the first error sticks and short-circuits the rest.

func (a *Writer) bytes(b []byte) {
	if a.err != nil {
		return
	}
	_, err := a.w.Write(b)
	a.err = err
}

func (a *Writer) fourcc(s string) {
	a.bytes([]byte(s))
}

func (a *Writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	a.bytes(b[:])
}

func (a *Writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	a.bytes(b[:])
}

func (a *Writer) pos() int64 {
	if a.err != nil {
		return 0
	}
	pos, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		a.err = err
	}
	return pos
}

func (a *Writer) patch(pos int64, v uint32) {
	if a.err != nil {
		return
	}
	if _, err := a.w.Seek(pos, io.SeekStart); err != nil {
		a.err = err
		return
	}
	a.u32(v)
}
