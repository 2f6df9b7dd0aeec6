package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// arcSegments is the number of line segments used to flatten a full
// circle. Visually smooth for overlay-sized radii.
const arcSegments = 64

type point struct {
	x, y float32
}

// subpath is an open or closed run of connected points.
type subpath struct {
	pts    []point
	closed bool
}

// renderer replays an instruction list onto one frame. It carries the
// usual 2D context state: a current path, a source color and a line width.
type renderer struct {
	dst *image.RGBA

	paths  []subpath
	hasCur bool
	cur    point
	color  color.RGBA
	width  float32
}

func newRenderer(dst *image.RGBA) *renderer {
	return &renderer{
		dst:   dst,
		color: color.RGBA{A: 0xff},
		width: 2,
	}
}

// render applies every op in order. The first bad op aborts the pass; the
// frame keeps whatever was drawn before it.
func (r *renderer) render(ops []Op) error {
	for i, op := range ops {
		if err := r.apply(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func (r *renderer) apply(op Op) error {
	switch op.Op {
	case OpSetRGBA:
		// color.RGBA is alpha-premultiplied; instruction components are not.
		r.color = color.RGBA{
			R: clamp8(op.R * op.A),
			G: clamp8(op.G * op.A),
			B: clamp8(op.B * op.A),
			A: clamp8(op.A),
		}
	case OpMoveTo:
		r.moveTo(point{float32(op.X), float32(op.Y)})
	case OpLineTo:
		r.lineTo(point{float32(op.X), float32(op.Y)})
	case OpArc:
		if op.Radius < 0 {
			return fmt.Errorf("negative radius %v", op.Radius)
		}
		r.arc(op.X, op.Y, op.Radius, op.Angle1, op.Angle2)
	case OpClosePath:
		r.closePath()
	case OpFill:
		r.fill()
		r.clearPath()
	case OpStroke:
		w := float32(op.Width)
		if w <= 0 {
			w = r.width
		}
		r.stroke(w)
		r.width = w
		r.clearPath()
	case OpText:
		r.text(op.X, op.Y, op.Text)
	default:
		return fmt.Errorf("unknown op")
	}
	return nil
}

func (r *renderer) moveTo(p point) {
	r.paths = append(r.paths, subpath{pts: []point{p}})
	r.cur, r.hasCur = p, true
}

func (r *renderer) lineTo(p point) {
	if !r.hasCur {
		r.moveTo(p)
		return
	}
	last := &r.paths[len(r.paths)-1]
	last.pts = append(last.pts, p)
	r.cur = p
}

func (r *renderer) closePath() {
	if len(r.paths) == 0 {
		return
	}
	last := &r.paths[len(r.paths)-1]
	if len(last.pts) > 1 {
		last.closed = true
		r.cur = last.pts[0]
	}
}

func (r *renderer) clearPath() {
	r.paths = r.paths[:0]
	r.hasCur = false
}

func (r *renderer) arc(cx, cy, radius, a1, a2 float64) {
	if a2 < a1 {
		a2 += 2 * math.Pi * math.Ceil((a1-a2)/(2*math.Pi))
	}
	steps := int(math.Ceil(arcSegments * (a2 - a1) / (2 * math.Pi)))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		a := a1 + (a2-a1)*float64(i)/float64(steps)
		p := point{
			float32(cx + radius*math.Cos(a)),
			float32(cy + radius*math.Sin(a)),
		}
		if i == 0 && !r.hasCur {
			r.moveTo(p)
		} else {
			r.lineTo(p)
		}
	}
}

func (r *renderer) fill() {
	bounds := r.dst.Bounds()
	ras := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	any := false
	for _, sp := range r.paths {
		if len(sp.pts) < 2 {
			continue
		}
		any = true
		ras.MoveTo(sp.pts[0].x, sp.pts[0].y)
		for _, p := range sp.pts[1:] {
			ras.LineTo(p.x, p.y)
		}
		ras.ClosePath()
	}
	if !any {
		return
	}
	ras.Draw(r.dst, bounds, image.NewUniform(r.color), image.Point{})
}

// stroke fills one quad per path segment. Joints are butt-capped; good
// enough for annotation lines a few pixels wide.
func (r *renderer) stroke(width float32) {
	bounds := r.dst.Bounds()
	ras := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	half := width / 2
	any := false

	for _, sp := range r.paths {
		pts := sp.pts
		if sp.closed && len(pts) > 1 {
			pts = append(append([]point{}, pts...), pts[0])
		}
		for i := 0; i+1 < len(pts); i++ {
			a, b := pts[i], pts[i+1]
			dx, dy := b.x-a.x, b.y-a.y
			length := float32(math.Hypot(float64(dx), float64(dy)))
			if length == 0 {
				continue
			}
			// unit normal
			nx, ny := -dy/length*half, dx/length*half

			any = true
			ras.MoveTo(a.x+nx, a.y+ny)
			ras.LineTo(b.x+nx, b.y+ny)
			ras.LineTo(b.x-nx, b.y-ny)
			ras.LineTo(a.x-nx, a.y-ny)
			ras.ClosePath()
		}
	}
	if !any {
		return
	}
	ras.Draw(r.dst, bounds, image.NewUniform(r.color), image.Point{})
}

// text draws with a fixed 7x13 bitmap face; (x, y) is the baseline origin.
func (r *renderer) text(x, y float64, s string) {
	d := font.Drawer{
		Dst:  r.dst,
		Src:  image.NewUniform(r.color),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
