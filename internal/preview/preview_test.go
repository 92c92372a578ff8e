package preview

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/polypixel/polypixel/backend-go/internal/engine"
)

func square(x, y, s float64) []engine.PathCommand {
	return []engine.PathCommand{
		{"M", x, y}, {"L", x + s, y}, {"L", x + s, y + s}, {"L", x, y + s}, {"Z"},
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		opacity float64
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff0000", 1, color.NRGBA{R: 0xff, A: 0xff}, false},
		{"#0f0", 1, color.NRGBA{G: 0xff, A: 0xff}, false},
		{"#000080", 0.5, color.NRGBA{B: 0x80, A: 0x80}, false},
		{"#123456", 0, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, false},
		{"red", 1, color.NRGBA{}, true},
		{"#zzzzzz", 1, color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in, tt.opacity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenderFillsPaths(t *testing.T) {
	commands := []engine.DrawCommand{
		{Op: "path", Path: square(0, 0, 40), Fill: "#000000", Opacity: 1},
		{Op: "path", Path: square(10, 10, 20), Fill: "#ff0000", Opacity: 1},
		{Op: "path", Path: []engine.PathCommand{{"M", 0.0, 35.0}, {"L", 40.0, 35.0}}, Stroke: "#00ff00", StrokeWidth: 2, Opacity: 1},
		{Op: "path", Path: square(0, 0, 5), Fill: "not-a-color", Opacity: 1},
	}
	img := NewRenderer(1).Render(40, 40, commands)

	if got := img.Bounds().Dx(); got != 40 {
		t.Fatalf("width = %d, want 40", got)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"background", 2, 2, color.RGBA{A: 0xff}},
		{"inner square", 20, 20, color.RGBA{R: 0xff, A: 0xff}},
		{"stroke", 20, 35, color.RGBA{G: 0xff, A: 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRenderScaleAndLabels(t *testing.T) {
	commands := []engine.DrawCommand{
		{Op: "path", Path: square(0, 0, 100), Fill: "#000000", Opacity: 1},
		{Op: "text", Text: "50.0%", Fill: "#ffffff", X: 50, Y: 50},
	}

	r := NewRenderer(0.5)
	img := r.Render(100, 100, commands)
	if got := img.Bounds().Dx(); got != 50 {
		t.Fatalf("scaled width = %d, want 50", got)
	}
	if !hasColor(img.Pix, 0xff) {
		t.Error("label was not drawn")
	}

	r.Labels = false
	img = r.Render(100, 100, commands)
	if hasColor(img.Pix, 0xff) {
		t.Error("label drawn with labels disabled")
	}
}

func hasColor(pix []uint8, red uint8) bool {
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] == red {
			return true
		}
	}
	return false
}

func TestEncodePNG(t *testing.T) {
	img := NewRenderer(1).Render(8, 8, []engine.DrawCommand{
		{Op: "path", Path: square(0, 0, 8), Fill: "#0000ff", Opacity: 1},
	})
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}
