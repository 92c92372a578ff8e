package engine

import (
	"encoding/json"
	"fmt"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/slicer"
)

// DrawCommand is one painting step. Hosts replay the list on a Canvas2D
// context; internal/preview rasterizes it server side.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path" or "text"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
	Dashed      bool          `json:"dashed,omitempty"`
	Text        string        `json:"text,omitempty"` // Label for "text" ops
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
}

// PathCommand is one path step: ["M", x, y], ["L", x, y] or ["Z"].
type PathCommand []interface{}

// PiecePalette colors pieces by position in the polygon set.
var PiecePalette = []string{"#e94560", "#53d769", "#0f9fd8", "#f5a623", "#c77dff", "#f25f5c"}

const (
	colorTape    = "#f5a623"
	colorMirror  = "#9ad0f5"
	colorOneWay  = "#a1e887"
	colorPortal  = "#c77dff"
	colorOutline = "#ffffff"
	colorLabel   = "#ffffff"
)

// VerdictColor is the color of the effective lines of an attempt.
func VerdictColor(v slicer.Verdict) string {
	switch v {
	case slicer.GoodCut:
		return "#53d769"
	case slicer.BadCut:
		return "#e94560"
	default:
		return "#cccccc"
	}
}

// CompileDrawCommands generates a draw command buffer from a snapshot and an
// optional attempt. Commands are in painter's order (back to front).
func CompileDrawCommands(snap Snapshot, attempt *Attempt) []DrawCommand {
	if snap.LevelID == "" {
		return nil
	}

	var commands []DrawCommand
	w, h := float64(snap.Width), float64(snap.Height)
	commands = append(commands, DrawCommand{
		Op:      "path",
		Path:    rectPath(0, 0, w, h),
		Fill:    snap.Background,
		Opacity: 1,
	})

	for i, p := range snap.Pieces {
		compilePiece(p, PiecePalette[i%len(PiecePalette)], &commands)
	}
	for i, p := range snap.Pieces {
		if i >= len(snap.Areas.Shares) || !p.Polygon.HasEnoughVertices() {
			continue
		}
		c := p.Polygon.Barycenter()
		commands = append(commands, DrawCommand{
			Op:       "text",
			ObjectID: p.ID,
			Text:     fmt.Sprintf("%.1f%%", snap.Areas.Shares[i]),
			Fill:     colorLabel,
			X:        c.X,
			Y:        c.Y,
		})
	}

	for _, obj := range snap.Objects {
		compileObject(obj, &commands)
	}

	if attempt != nil {
		color := VerdictColor(attempt.Verdict)
		for _, line := range attempt.Lines {
			commands = append(commands, DrawCommand{
				Op:          "path",
				Path:        segmentPath(line),
				Stroke:      color,
				StrokeWidth: 2,
				Opacity:     1,
				Dashed:      attempt.Blocked,
			})
		}
	}

	return commands
}

func compilePiece(p slicer.Piece, fill string, commands *[]DrawCommand) {
	if !p.Polygon.HasEnoughVertices() {
		return
	}
	*commands = append(*commands, DrawCommand{
		Op:          "path",
		ObjectID:    p.ID,
		Path:        polygonPath(p.Polygon),
		Fill:        fill,
		Stroke:      colorOutline,
		StrokeWidth: 1,
		Opacity:     1,
	})
}

func compileObject(obj ObjectState, commands *[]DrawCommand) {
	opacity := 1.0
	if obj.Used {
		opacity = 0.25
	}

	switch obj.Kind {
	case "tape":
		if len(obj.Rect) != 4 {
			return
		}
		*commands = append(*commands, DrawCommand{
			Op:       "path",
			ObjectID: obj.ID,
			Path:     rectPath(obj.Rect[0], obj.Rect[1], obj.Rect[2], obj.Rect[3]),
			Fill:     colorTape,
			Opacity:  opacity,
			Dashed:   obj.Disposable,
		})
	case "mirror", "oneWay":
		color := colorMirror
		if obj.Kind == "oneWay" {
			color = colorOneWay
		}
		for _, s := range obj.Segments {
			*commands = append(*commands, DrawCommand{
				Op:          "path",
				ObjectID:    obj.ID,
				Path:        segmentPath(s),
				Stroke:      color,
				StrokeWidth: 3,
				Opacity:     opacity,
				Dashed:      obj.Disposable,
			})
			if obj.Kind == "oneWay" {
				// Tick along the allowed direction.
				c := s.Center()
				*commands = append(*commands, DrawCommand{
					Op:          "path",
					ObjectID:    obj.ID,
					Path:        segmentPath(geometry.Seg(c, c.Add(s.Normal().Scale(10)))),
					Stroke:      color,
					StrokeWidth: 2,
					Opacity:     opacity,
				})
			}
		}
	case "portal":
		for i, s := range obj.Segments {
			*commands = append(*commands, DrawCommand{
				Op:          "path",
				ObjectID:    obj.ID,
				Path:        segmentPath(s),
				Stroke:      colorPortal,
				StrokeWidth: 3,
				Opacity:     opacity,
				Dashed:      i == 1,
			})
		}
	}
}

func polygonPath(p geometry.Polygon) []PathCommand {
	path := make([]PathCommand, 0, p.Len()+1)
	for i, v := range p.Vertices {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, v.X, v.Y})
	}
	return append(path, PathCommand{"Z"})
}

func segmentPath(s geometry.Segment) []PathCommand {
	return []PathCommand{{"M", s.A.X, s.A.Y}, {"L", s.B.X, s.B.Y}}
}

func rectPath(x, y, w, h float64) []PathCommand {
	return []PathCommand{
		{"M", x, y}, {"L", x + w, y}, {"L", x + w, y + h}, {"L", x, y + h}, {"Z"},
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTestTolerance is the distance, in scene units, within which a point
// touches a line object.
const HitTestTolerance = 4

// HitTest returns the id of the topmost object or piece at p, or an empty
// string. Line objects are drawn above pieces and win ties. A point just
// outside a piece still selects it when it is within HitTestTolerance of the
// outline.
func HitTest(snap Snapshot, p geometry.Point) string {
	for i := len(snap.Objects) - 1; i >= 0; i-- {
		obj := snap.Objects[i]
		if len(obj.Rect) == 4 {
			r := geometry.RectXYWH(obj.Rect[0], obj.Rect[1], obj.Rect[2], obj.Rect[3])
			if geometry.RectContains(r, p) {
				return obj.ID
			}
		}
		for _, s := range obj.Segments {
			if s.DistanceToPoint(p) <= HitTestTolerance {
				return obj.ID
			}
		}
	}

	for i := len(snap.Pieces) - 1; i >= 0; i-- {
		if snap.Pieces[i].Polygon.IsPointInside(p) {
			return snap.Pieces[i].ID
		}
	}
	return pieceNear(snap, p, HitTestTolerance)
}

func pieceNear(snap Snapshot, p geometry.Point, tolerance float64) string {
	for i := len(snap.Pieces) - 1; i >= 0; i-- {
		if snap.Pieces[i].Polygon.IsPointNearOneEdge(p, tolerance) {
			return snap.Pieces[i].ID
		}
	}
	return ""
}

// HitTest runs HitTest against the current state.
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.Snapshot(), geometry.Pt(x, y))
}
