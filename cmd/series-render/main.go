package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-series/internal/fitcommon"
	"github.com/cwbudde/algo-series/midifile"
	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds (single-note mode)")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds (single-note mode)")
	midiPath := flag.String("midi", "", "Render a Standard MIDI File instead of a single note")
	tail := flag.Float64("tail", 2.0, "Extra seconds rendered after the last MIDI event")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(-1), "Stop early once all voices are gone and the block peak is below this dBFS")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	outputRate := flag.Int("output-rate", 0, "Resample the result to this rate (0 = render rate)")
	channels := flag.Int("channels", 2, "Number of output channels")
	maxVoices := flag.Int("voices", series.DefaultMaxVoices, "Voice arena capacity")
	blockSize := flag.Int("block", 128, "Processing block size in frames")
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	savePreset := flag.String("save-preset", "", "Write the effective preset to this path")
	seed := flag.Int64("seed", 1, "Noise seed")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := series.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
		params = p
	}
	if *savePreset != "" {
		if err := preset.SaveJSON(*savePreset, params); err != nil {
			die("Error saving preset: %v", err)
		}
	}
	if *channels < 1 || *blockSize < 1 || *sampleRate <= 0 {
		die("channels, block and sample-rate must be positive")
	}

	var sched *midifile.Schedule
	var totalFrames int
	if *midiPath != "" {
		s, err := midifile.Load(*midiPath, *sampleRate)
		if err != nil {
			die("Error loading MIDI: %v", err)
		}
		sched = s
		totalFrames = s.Length() + int(*tail*float64(*sampleRate))
		fmt.Printf("Rendering %s (%d events, %.2fs + %.2fs tail) at %d Hz...\n",
			*midiPath, len(s.Events), s.Duration().Seconds(), *tail, *sampleRate)
	} else {
		vel := float32(fitcommon.Clamp(float64(*velocity)/127.0, 0, 1))
		sched = &midifile.Schedule{SampleRate: *sampleRate, Events: []series.Event{
			series.NoteOnAt(0, *note, vel),
			series.NoteOffAt(int(*releaseAfter*float64(*sampleRate)), *note),
		}}
		totalFrames = int(*duration * float64(*sampleRate))
		fmt.Printf("Rendering note %d, velocity %d, for %.2f seconds at %d Hz...\n",
			*note, *velocity, *duration, *sampleRate)
	}
	if totalFrames < 1 {
		totalFrames = 1
	}

	engine := series.NewEngine(float32(*sampleRate), *maxVoices)
	engine.SetNoiseSeed(*seed)
	auto := series.NewAutomation(float32(*sampleRate), params)
	cursor := midifile.NewCursor(sched)

	out := make([][]float32, *channels)
	for c := range out {
		out[c] = make([]float32, 0, totalFrames)
	}
	block := make([][]float32, *channels)
	for c := range block {
		block[c] = make([]float32, *blockSize)
	}
	events := make([]series.Event, 0, 256)

	autoStop := !math.IsInf(*decayDBFS, -1)
	rendered := 0
	for rendered < totalFrames {
		n := *blockSize
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		for c := range block {
			block[c] = block[c][:n]
		}
		events = cursor.Next(n, events[:0])
		engine.ProcessBlock(block, events, auto)
		for c := range out {
			out[c] = append(out[c], block[c]...)
		}
		rendered += n

		if autoStop && cursor.Done() && engine.ActiveVoices() == 0 && fitcommon.PeakDBFS(block[0]) < *decayDBFS {
			fmt.Printf("Auto-stop at %d frames (%.3fs)\n", rendered, float64(rendered)/float64(*sampleRate))
			break
		}
	}

	rate := *sampleRate
	if *outputRate > 0 && *outputRate != rate {
		for c := range out {
			y, err := fitcommon.ResampleIfNeeded(float32To64(out[c]), rate, *outputRate)
			if err != nil {
				die("Error resampling: %v", err)
			}
			out[c] = float64To32(y)
		}
		rate = *outputRate
	}

	if err := fitcommon.WriteWAV(*output, out, rate); err != nil {
		die("Error writing WAV: %v", err)
	}
	fmt.Printf("Wrote %s (%d frames, %d ch, %d Hz, peak %.1f dBFS, rms %.4f)\n",
		*output, len(out[0]), len(out), rate, fitcommon.PeakDBFS(out[0]), fitcommon.RMS(out[0]))
}

func float32To64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

func float64To32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
