package main

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-series/series"
)

type renderConfig struct {
	note         int
	velocity     float32
	sampleRate   int
	duration     float64 // seconds
	releaseAfter float64 // seconds
	seed         int64
}

// renderCandidate plays one note through a fresh engine and returns the mono
// signal as float64 for analysis.
func renderCandidate(p *series.Params, rc renderConfig) ([]float64, []float32, error) {
	if p == nil {
		return nil, nil, errors.New("nil params")
	}
	frames := int(rc.duration * float64(rc.sampleRate))
	if frames < 1 {
		return nil, nil, errors.New("duration too small")
	}
	release := int(math.Max(0, rc.releaseAfter) * float64(rc.sampleRate))

	e := series.NewEngine(float32(rc.sampleRate), 4)
	e.SetNoiseSeed(rc.seed)

	out := make([]float32, frames)
	const blockSize = 128
	events := make([]series.Event, 0, 2)
	for pos := 0; pos < frames; pos += blockSize {
		n := blockSize
		if pos+n > frames {
			n = frames - pos
		}
		events = events[:0]
		if pos == 0 {
			events = append(events, series.NoteOnAt(0, rc.note, rc.velocity))
		}
		if release >= pos && release < pos+n {
			events = append(events, series.NoteOffAt(release-pos, rc.note))
		}
		e.ProcessBlock([][]float32{out[pos : pos+n]}, events, p)
	}

	mono := make([]float64, frames)
	for i, v := range out {
		mono[i] = float64(v)
	}
	return mono, out, nil
}

func noteToHz(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
