package video

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// WarpMatrix is a 2x3 affine matrix mapping source pixels to destination
// pixels, used for lens/perspective correction of the display branch.
type WarpMatrix = f64.Aff3

// IdentityWarp leaves frames unchanged.
var IdentityWarp = WarpMatrix{1, 0, 0, 0, 1, 0}

// Warp returns a transform applying the affine correction to every frame.
// The output keeps the input geometry; regions mapped from outside the
// source stay transparent black.
func Warp(m WarpMatrix) TransformFunc {
	if m == IdentityWarp {
		return nil
	}

	return func(r Reader) Reader {
		var dst *image.RGBA
		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}

			bounds := img.Bounds()
			rect := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
			if dst == nil || dst.Rect != rect {
				dst = image.NewRGBA(rect)
			} else {
				for i := range dst.Pix {
					dst.Pix[i] = 0
				}
			}

			draw.ApproxBiLinear.Transform(dst, m, img, bounds, draw.Src, nil)
			if release != nil {
				release()
			}
			return dst, func() {}, nil
		})
	}
}
