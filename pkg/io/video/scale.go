package video

import (
	"image"

	"golang.org/x/image/draw"
)

// Scaler represents a scaling algorithm.
type Scaler draw.Scaler

// List of scaling algorithms.
var (
	ScalerNearestNeighbor = Scaler(draw.NearestNeighbor)
	ScalerApproxBiLinear  = Scaler(draw.ApproxBiLinear)
	ScalerBiLinear        = Scaler(draw.BiLinear)
	ScalerCatmullRom      = Scaler(draw.CatmullRom)
)

// Scale returns a video scaling transform producing RGBA frames of the given
// size. A nil scaler defaults to ScalerNearestNeighbor. A non-positive width
// or height is derived from the incoming frame's aspect ratio; both
// non-positive is invalid and yields an unchanged chain (nil transform).
func Scale(width, height int, scaler Scaler) TransformFunc {
	if width <= 0 && height <= 0 {
		return nil
	}
	if scaler == nil {
		scaler = ScalerNearestNeighbor
	}

	return func(r Reader) Reader {
		var dst *image.RGBA
		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}

			w, h := width, height
			if h <= 0 {
				h = img.Bounds().Dy() * w / img.Bounds().Dx()
			} else if w <= 0 {
				w = img.Bounds().Dx() * h / img.Bounds().Dy()
			}
			rect := image.Rect(0, 0, w, h)
			if dst == nil || dst.Rect != rect {
				dst = image.NewRGBA(rect)
			}

			scaler.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
			if release != nil {
				release()
			}
			return dst, func() {}, nil
		})
	}
}
