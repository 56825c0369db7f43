//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

const maxBlock = 128

var (
	engine       *series.Engine
	automation   *series.Automation
	pending      []series.Event
	outputBuffer []float32
	planar       [][]float32
	block        = make([][]float32, 2)
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmPolyPressure", js.FuncOf(wasmPolyPressure))
	js.Global().Set("wasmLoadPreset", js.FuncOf(wasmLoadPreset))
	js.Global().Set("wasmReset", js.FuncOf(wasmReset))
	js.Global().Set("wasmActiveVoices", js.FuncOf(wasmActiveVoices))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM series module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := float32(args[0].Int())
	voices := series.DefaultMaxVoices
	if len(args) > 1 {
		voices = args[1].Int()
	}

	engine = series.NewEngine(sampleRate, voices)
	automation = series.NewAutomation(sampleRate, series.NewDefaultParams())
	pending = make([]series.Event, 0, 64)

	// Stereo planar: left block followed by right block.
	outputBuffer = make([]float32, maxBlock*2)
	planar = [][]float32{outputBuffer[:maxBlock], outputBuffer[maxBlock:]}

	println("Series synth initialized at", int(sampleRate), "Hz")
	return nil
}

func queue(ev series.Event) {
	if len(pending) < cap(pending) {
		pending = append(pending, ev)
	}
}

func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || engine == nil {
		return nil
	}
	queue(series.NoteOnAt(0, args[0].Int(), float32(args[1].Int())/127))
	return nil
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	queue(series.NoteOffAt(0, args[0].Int()))
	return nil
}

func wasmPolyPressure(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || engine == nil {
		return nil
	}
	queue(series.PolyPressureAt(0, args[0].Int(), float32(args[1].Int())/127))
	return nil
}

// wasmLoadPreset takes preset JSON text and retargets the automation.
func wasmLoadPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || automation == nil {
		return nil
	}
	var f preset.File
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		println("Failed to parse preset:", err.Error())
		return false
	}
	p := automation.Target()
	if err := preset.ApplyFile(&p, &f); err != nil {
		println("Invalid preset:", err.Error())
		return false
	}
	automation.SetTarget(&p)
	return true
}

func wasmReset(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return nil
	}
	pending = pending[:0]
	engine.Reset()
	return nil
}

func wasmActiveVoices(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return 0
	}
	return engine.ActiveVoices()
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxBlock {
		numFrames = maxBlock
	}
	if numFrames < 1 {
		return 0
	}
	block[0] = planar[0][:numFrames]
	block[1] = planar[1][:numFrames]
	engine.ProcessBlock(block, pending, automation)
	pending = pending[:0]

	// Return pointer to buffer in WASM linear memory
	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
