//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/polypixel/polypixel/backend-go/internal/engine"
	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadLevel", js.FuncOf(loadLevel))
	api.Set("loadSampleLevel", js.FuncOf(loadSampleLevel))
	api.Set("restart", js.FuncOf(restart))
	api.Set("press", js.FuncOf(press))
	api.Set("drag", js.FuncOf(drag))
	api.Set("release", js.FuncOf(release))
	api.Set("cancel", js.FuncOf(cancel))
	api.Set("slice", js.FuncOf(slice))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSnapshot", js.FuncOf(getSnapshot))
	api.Set("getInfo", js.FuncOf(getInfo))
	api.Set("getLastAttempt", js.FuncOf(getLastAttempt))
	api.Set("isStrokeActive", js.FuncOf(isStrokeActive))

	js.Global().Set("polypixelEngine", api)
	js.Global().Set("polypixelWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// jsonResult hands values to JS as JSON text, like render does.
func jsonResult(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func pointArg(args []js.Value, i int) (geometry.Point, bool) {
	if len(args) < i+2 {
		return geometry.Point{}, false
	}
	return geometry.Pt(args[i].Float(), args[i+1].Float()), true
}

// --- Command Handlers ---

func loadLevel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing level JSON"})
	}
	if err := eng.LoadLevelJSON([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleLevel(this js.Value, args []js.Value) interface{} {
	if err := eng.LoadSampleLevel(); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func restart(this js.Value, args []js.Value) interface{} {
	if err := eng.Restart(); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func press(this js.Value, args []js.Value) interface{} {
	p, ok := pointArg(args, 0)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "missing point"})
	}
	if err := eng.Press(p); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func drag(this js.Value, args []js.Value) interface{} {
	p, ok := pointArg(args, 0)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "missing point"})
	}
	attempt, err := eng.Drag(p)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(attempt)
}

func release(this js.Value, args []js.Value) interface{} {
	p, ok := pointArg(args, 0)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "missing point"})
	}
	result, err := eng.Release(p)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func slice(this js.Value, args []js.Value) interface{} {
	a, okA := pointArg(args, 0)
	b, okB := pointArg(args, 2)
	if !okA || !okB {
		return js.ValueOf(map[string]interface{}{"error": "slice needs x1, y1, x2, y2"})
	}
	result, err := eng.Slice(geometry.Seg(a, b))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	p, ok := pointArg(args, 0)
	if !ok {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(p.X, p.Y))
}

func getSnapshot(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SnapshotJSON())
}

func getInfo(this js.Value, args []js.Value) interface{} {
	return jsonResult(eng.Info())
}

func getLastAttempt(this js.Value, args []js.Value) interface{} {
	attempt, ok := eng.LastAttempt()
	if !ok {
		return js.Null()
	}
	return jsonResult(attempt)
}

func isStrokeActive(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.StrokeActive())
}
