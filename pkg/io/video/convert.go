package video

import (
	"image"
	"image/draw"
)

// toRGBA renders src into dst, reallocating dst's pixel buffer only when the
// geometry changes.
func toRGBA(dst *image.RGBA, src image.Image) {
	bounds := src.Bounds()
	if dst.Rect != bounds || len(dst.Pix) < 4*bounds.Dx()*bounds.Dy() {
		*dst = *image.NewRGBA(bounds)
	}
	if v, ok := src.(*image.RGBA); ok && v.Stride == dst.Stride && v.Rect == dst.Rect {
		copy(dst.Pix, v.Pix)
		return
	}
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
}

// ToRGBA returns a transform that converts every frame to RGBA, the layout
// required by the overlay and encoder stages. The conversion reuses one
// buffer, so downstream stages must not retain frames across reads.
func ToRGBA() TransformFunc {
	return func(r Reader) Reader {
		var dst image.RGBA
		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}
			if v, ok := img.(*image.RGBA); ok {
				return v, release, nil
			}
			toRGBA(&dst, img)
			if release != nil {
				release()
			}
			return &dst, func() {}, nil
		})
	}
}
