// Package preview rasterizes engine draw commands into still images, used for
// level thumbnails.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/polypixel/polypixel/backend-go/internal/engine"
)

const dashLength = 6

// Renderer paints draw commands onto an RGBA canvas. Scene coordinates are
// multiplied by Scale.
type Renderer struct {
	Scale  float64
	Labels bool
}

func NewRenderer(scale float64) *Renderer {
	if scale <= 0 {
		scale = 1
	}
	return &Renderer{Scale: scale, Labels: true}
}

// Render paints commands in order onto a width x height scene.
func (r *Renderer) Render(width, height int, commands []engine.DrawCommand) *image.RGBA {
	w := int(math.Ceil(float64(width) * r.Scale))
	h := int(math.Ceil(float64(height) * r.Scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	z := vector.NewRasterizer(w, h)

	for _, cmd := range commands {
		switch cmd.Op {
		case "path":
			pts, closed := r.points(cmd.Path)
			if len(pts) < 2 {
				continue
			}
			if cmd.Fill != "" {
				if c, err := ParseColor(cmd.Fill, cmd.Opacity); err == nil {
					r.fill(z, img, pts, c)
				}
			}
			if cmd.Stroke != "" && cmd.StrokeWidth > 0 {
				if c, err := ParseColor(cmd.Stroke, cmd.Opacity); err == nil {
					r.stroke(z, img, pts, closed, cmd.StrokeWidth*r.Scale, cmd.Dashed, c)
				}
			}
		case "text":
			if !r.Labels || cmd.Text == "" {
				continue
			}
			c, err := ParseColor(cmd.Fill, 1)
			if err != nil {
				c = color.NRGBA{A: 0xff}
			}
			r.label(img, cmd.Text, cmd.X*r.Scale, cmd.Y*r.Scale, c)
		}
	}
	return img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (r *Renderer) points(path []engine.PathCommand) (pts [][2]float32, closed bool) {
	for _, pc := range path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		switch op {
		case "M", "L":
			if len(pc) < 3 {
				continue
			}
			x, okX := toFloat(pc[1])
			y, okY := toFloat(pc[2])
			if !okX || !okY {
				continue
			}
			pts = append(pts, [2]float32{float32(x * r.Scale), float32(y * r.Scale)})
		case "Z":
			closed = true
		}
	}
	return pts, closed
}

func (r *Renderer) fill(z *vector.Rasterizer, dst draw.Image, pts [][2]float32, c color.Color) {
	b := dst.Bounds()
	z.Reset(b.Dx(), b.Dy())
	z.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		z.LineTo(p[0], p[1])
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func (r *Renderer) stroke(z *vector.Rasterizer, dst draw.Image, pts [][2]float32, closed bool, width float64, dashed bool, c color.Color) {
	b := dst.Bounds()
	z.Reset(b.Dx(), b.Dy())
	n := len(pts)
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		a, e := pts[i], pts[(i+1)%n]
		if dashed {
			dashes(z, a, e, float32(width), float32(dashLength*r.Scale))
		} else {
			quad(z, a, e, float32(width))
		}
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// quad adds the rectangle covering the segment a-e with the given width.
func quad(z *vector.Rasterizer, a, e [2]float32, width float32) {
	dx, dy := e[0]-a[0], e[1]-a[1]
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(a[0]+nx, a[1]+ny)
	z.LineTo(e[0]+nx, e[1]+ny)
	z.LineTo(e[0]-nx, e[1]-ny)
	z.LineTo(a[0]-nx, a[1]-ny)
	z.ClosePath()
}

func dashes(z *vector.Rasterizer, a, e [2]float32, width, dash float32) {
	dx, dy := e[0]-a[0], e[1]-a[1]
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 || dash <= 0 {
		return
	}
	for s := float32(0); s < l; s += 2 * dash {
		t0, t1 := s/l, min(s+dash, l)/l
		quad(z,
			[2]float32{a[0] + dx*t0, a[1] + dy*t0},
			[2]float32{a[0] + dx*t1, a[1] + dy*t1},
			width)
	}
}

// label draws text centered on (x, y).
func (r *Renderer) label(dst draw.Image, text string, x, y float64, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(int(math.Round(x))) - width/2,
			Y: fixed.I(int(math.Round(y)) + face.Ascent/2),
		},
	}
	d.DrawString(text)
}

// ParseColor reads "#rgb" or "#rrggbb" and applies opacity in [0, 1].
func ParseColor(s string, opacity float64) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(math.Round(opacity * 255)),
	}, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
