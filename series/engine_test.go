package series

import (
	"math"
	"testing"
)

func TestPureFundamentalMatchesSine(t *testing.T) {
	const sr = 48000
	p := sustainParams()
	e := NewEngine(sr, 8)
	e.NoteOn(69, 1)

	out := renderTicks(e, p, 2000)
	gain := float64(dbToGain(p.GainDB))
	for n, got := range out {
		want := gain * math.Sin(2*math.Pi*440*float64(n)/sr)
		if math.Abs(float64(got)-want) > 2e-3 {
			t.Fatalf("sample %d: got=%f want=%f", n, got, want)
		}
	}
}

func TestMasterGainScalesOutput(t *testing.T) {
	p := sustainParams()
	p.GainDB = 0
	loud := renderTicks(newNoteEngine(60), p, 1000)
	p.GainDB = -20
	quiet := renderTicks(newNoteEngine(60), p, 1000)

	ratio := windowRMS(quiet) / windowRMS(loud)
	if math.Abs(ratio-0.1) > 0.01 {
		t.Fatalf("-20 dB ratio: got=%f want=0.1", ratio)
	}
}

func newNoteEngine(note int) *Engine {
	e := NewEngine(48000, 8)
	e.NoteOn(note, 1)
	return e
}

func TestAmplitudeWidthHarmonicRatios(t *testing.T) {
	// 440 Hz lands on bin 32 of a 4096-point FFT at this rate.
	const sr = 440 * 4096 / 32
	const n = 4096
	const fundamentalBin = 32

	for _, mode := range []AmpWidth{AmpWidthFlat, AmpWidthInverseLinear, AmpWidthInverseSquare} {
		t.Run(mode.String(), func(t *testing.T) {
			p := sustainParams()
			p.AmpWidth = mode
			for i := 0; i < 5; i++ {
				p.Harmonics[i] = 1
			}
			e := NewEngine(sr, 4)
			e.NoteOn(69, 1)
			mags := binMagnitudes(t, renderTicks(e, p, n))

			base := mags[fundamentalBin]
			if base == 0 {
				t.Fatalf("no fundamental")
			}
			for i := 1; i < 5; i++ {
				got := mags[fundamentalBin*(i+1)] / base
				want := float64(mode.Scale(i))
				if math.Abs(got-want) > 2e-3 {
					t.Fatalf("harmonic %d relative amplitude: got=%f want=%f", i, got, want)
				}
			}
		})
	}
}

func TestRetriggerOldVoiceDecaysUntilRemoved(t *testing.T) {
	p := sustainParams()
	p.Release = 0.05
	e := NewEngine(48000, 8)
	first, _ := e.Voices().NoteOn(60, 1)
	renderTicks(e, p, 100)
	e.NoteOn(60, 1)

	if got := noteStages(e.Voices(), 60); len(got) != 2 || got[0] != StageAttack || got[1] != StageDead {
		t.Fatalf("stages after retrigger: %v", got)
	}

	prev := voiceState(t, e.Voices(), first).Envelope()
	ticks := 0
	for {
		e.Tick(p)
		ticks++
		v, ok := e.Voices().Lookup(first)
		if !ok {
			break
		}
		if v.Envelope() >= prev {
			t.Fatalf("dead voice did not decrease at tick %d: %f -> %f", ticks, prev, v.Envelope())
		}
		prev = v.Envelope()
		if ticks > 48000 {
			t.Fatalf("dead voice never removed")
		}
	}
	if e.ActiveVoices() != 1 {
		t.Fatalf("voices after removal: got=%d want=1", e.ActiveVoices())
	}
}

func TestReleasedVoiceStopsContributing(t *testing.T) {
	p := sustainParams()
	p.Release = 0.01
	const sr = 48000
	e := NewEngine(sr, 8)
	e.NoteOn(60, 1)
	renderTicks(e, p, 500)
	e.NoteOff(60)

	for i := 0; e.ActiveVoices() > 0; i++ {
		e.Tick(p)
		if i > sr {
			t.Fatalf("voice leaked")
		}
	}
	for i, s := range renderTicks(e, p, 256) {
		if s != 0 {
			t.Fatalf("sample %d after removal: %f", i, s)
		}
	}
}

func TestInstantReleaseRemovesVoiceInOneTick(t *testing.T) {
	p := sustainParams()
	e := newNoteEngine(60)
	renderTicks(e, p, 64)
	e.NoteOff(60)
	if got := e.Tick(p); got != 0 {
		t.Fatalf("final sample with instant release: got=%f want=0", got)
	}
	if e.ActiveVoices() != 0 {
		t.Fatalf("voice count: got=%d want=0", e.ActiveVoices())
	}
}

func TestProcessBlockChannelsAreIdentical(t *testing.T) {
	p := sustainParams()
	p.Harmonics[3] = 0.5
	p.HigherWaveform = WaveformSawtooth
	p.Noise = 0.2
	e := NewEngine(48000, 8)

	const frames = 512
	out := [][]float32{make([]float32, frames), make([]float32, frames), make([]float32, frames)}
	events := []Event{NoteOnAt(0, 48, 1), NoteOnAt(7, 55, 0.7), NoteOffAt(300, 48)}
	if got := e.ProcessBlock(out, events, p); got != len(events) {
		t.Fatalf("consumed events: got=%d want=%d", got, len(events))
	}
	for i := 0; i < frames; i++ {
		a := math.Float32bits(out[0][i])
		for c := 1; c < len(out); c++ {
			if math.Float32bits(out[c][i]) != a {
				t.Fatalf("channel %d differs at %d: %v vs %v", c, i, out[c][i], out[0][i])
			}
		}
	}
	if maxAbs(out[0]) == 0 {
		t.Fatalf("silent block")
	}
}

func TestProcessBlockAppliesEventsAtOffset(t *testing.T) {
	p := sustainParams()
	e := NewEngine(48000, 8)
	out := [][]float32{make([]float32, 64)}
	events := []Event{NoteOnAt(10, 69, 1), NoteOffAt(100, 69)}

	if got := e.ProcessBlock(out, events, p); got != 1 {
		t.Fatalf("consumed events: got=%d want=1", got)
	}
	for i := 0; i <= 10; i++ {
		if out[0][i] != 0 {
			t.Fatalf("sample %d before note start: %f", i, out[0][i])
		}
	}
	if out[0][11] == 0 {
		t.Fatalf("expected output right after note start")
	}

	// The caller rebases the pending NoteOff into the next block.
	rest := []Event{NoteOffAt(100-64, 69)}
	e.ProcessBlock(out, rest, p)
	if e.ActiveVoices() != 0 {
		t.Fatalf("voice not released by deferred event")
	}
}

type countingSource struct {
	p     *Params
	calls int
}

func (c *countingSource) Next() *Params {
	c.calls++
	return c.p
}

func TestProcessBlockReadsParamsOncePerSample(t *testing.T) {
	src := &countingSource{p: sustainParams()}
	e := NewEngine(48000, 8)
	e.NoteOn(60, 1)
	e.NoteOn(64, 1)
	e.NoteOn(67, 1)
	out := [][]float32{make([]float32, 128)}
	e.ProcessBlock(out, nil, src)
	if src.calls != 128 {
		t.Fatalf("Next calls: got=%d want=128", src.calls)
	}
}

func TestResetSilencesEngine(t *testing.T) {
	p := sustainParams()
	p.LFORate = 5
	e := newNoteEngine(60)
	renderTicks(e, p, 100)
	e.Reset()
	if e.ActiveVoices() != 0 || e.LFO().Phase() != 0 {
		t.Fatalf("reset left voices=%d lfo=%f", e.ActiveVoices(), e.LFO().Phase())
	}
	if got := e.Tick(p); got != 0 {
		t.Fatalf("output after reset: %f", got)
	}
}

func TestNoiseIsSeededAndBounded(t *testing.T) {
	p := sustainParams()
	p.Harmonics[0] = 0
	p.Noise = 0.5
	p.GainDB = 0

	render := func() []float32 {
		e := newNoteEngine(60)
		e.SetNoiseSeed(42)
		return renderTicks(e, p, 1000)
	}
	a, b := render(), render()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not reproducible at %d", i)
		}
	}
	if m := maxAbs(a); m == 0 || m > 0.5*1.01 {
		t.Fatalf("noise peak: got=%f want in (0, 0.5]", m)
	}
}

func TestGainLFOModulatesAmplitude(t *testing.T) {
	p := sustainParams()
	p.GainDB = 0
	p.LFODest = LFOGain
	p.LFORate = 10
	p.LFOAmount = 0.5

	const sr = 48000
	e := NewEngine(sr, 4)
	e.NoteOn(81, 1)
	out := renderTicks(e, p, sr/10)

	// 1 + 0.5*sin peaks at 1.5 a quarter cycle in and dips to 0.5 later.
	peak := maxAbs(out[sr/40-200 : sr/40+200])
	dip := maxAbs(out[3*sr/40-200 : 3*sr/40+200])
	if peak < 1.4 || dip > 0.6 {
		t.Fatalf("gain LFO: peak=%f dip=%f", peak, dip)
	}
}

func TestPitchLFOShiftsFrequency(t *testing.T) {
	p := sustainParams()
	p.LFODest = LFOPitch
	p.LFORate = 0
	p.LFOAmount = 0.5

	e := NewEngine(48000, 4)
	// Park the LFO at a quarter cycle so the pitch factor is 1.5.
	e.lfo.phase = 0.25
	e.NoteOn(69, 1)
	e.Tick(p)
	v := e.Voices().States(nil)[0]
	if want := float32(660.0 / 48000); math.Abs(float64(v.Phase-want)) > 1e-5 {
		t.Fatalf("phase after one tick: got=%f want=%f", v.Phase, want)
	}
}

func TestFrequencyRatioAndCents(t *testing.T) {
	tests := []struct {
		name     string
		mul, div int
		cents    int
		want     float64
	}{
		{"unity", 1, 1, 0, 440},
		{"octave up", 2, 1, 0, 880},
		{"fifth down", 2, 3, 0, 440 * 2.0 / 3.0},
		{"plus 100 cents", 1, 1, 100, 440 * math.Pow(2, 100.0/1200)},
		{"minus 50 cents", 1, 1, -50, 440 * math.Pow(2, -50.0/1200)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := sustainParams()
			p.FreqMultiply = tc.mul
			p.FreqDivide = tc.div
			p.Cents = tc.cents
			e := NewEngine(48000, 4)
			e.NoteOn(69, 1)
			e.Tick(p)
			got := float64(e.Voices().States(nil)[0].Phase) * 48000
			if math.Abs(got-tc.want) > 0.01 {
				t.Fatalf("frequency: got=%f want=%f", got, tc.want)
			}
		})
	}
}

func TestVelocityAmountBlendsFollower(t *testing.T) {
	p := sustainParams()
	p.GainDB = 0
	p.VelocityAmount = 1

	e := NewEngine(48000, 4)
	e.NoteOn(69, 0.25)
	out := renderTicks(e, p, 4800)
	if peak := maxAbs(out[2400:]); math.Abs(peak-0.25) > 0.01 {
		t.Fatalf("peak with full velocity amount: got=%f want=0.25", peak)
	}

	p.VelocityAmount = 0
	e = NewEngine(48000, 4)
	e.NoteOn(69, 0.25)
	out = renderTicks(e, p, 4800)
	if peak := maxAbs(out[2400:]); math.Abs(peak-1) > 0.01 {
		t.Fatalf("peak without velocity amount: got=%f want=1", peak)
	}
}

func TestSetSampleRateChangesStep(t *testing.T) {
	p := sustainParams()
	e := NewEngine(48000, 4)
	e.SetSampleRate(44100)
	e.NoteOn(69, 1)
	e.Tick(p)
	got := e.Voices().States(nil)[0].Phase
	if want := float32(440.0 / 44100); math.Abs(float64(got-want)) > 1e-6 {
		t.Fatalf("phase step: got=%f want=%f", got, want)
	}
}

func TestLongRenderHasNoNaNOrInf(t *testing.T) {
	p := sustainParams()
	p.Attack = 0.01
	p.Decay = 0.2
	p.Sustain = 0.6
	p.Release = 0.3
	p.HigherWaveform = WaveformSquare
	p.Noise = 0.05
	p.LFODest = LFOPitch
	p.LFORate = 6
	p.LFOAmount = 0.02
	for i := range p.Harmonics {
		p.Harmonics[i] = 1 / float32(i+1)
	}

	e := NewEngine(48000, 16)
	out := [][]float32{make([]float32, 128), make([]float32, 128)}
	for block := 0; block < 400; block++ {
		var events []Event
		if block%20 == 0 {
			note := 36 + block%48
			events = append(events, NoteOnAt(block%128, note, 0.8), NoteOffAt(127, note-12))
		}
		e.ProcessBlock(out, events, p)
		for i, s := range out[0] {
			if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
				t.Fatalf("non-finite sample at block %d sample %d: %v", block, i, s)
			}
		}
	}
}

func BenchmarkEngineTick(b *testing.B) {
	p := sustainParams()
	p.HigherWaveform = WaveformSawtooth
	for i := range p.Harmonics {
		p.Harmonics[i] = 1
	}
	e := NewEngine(48000, 16)
	for n := 0; n < 8; n++ {
		e.NoteOn(48+n*3, 1)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Tick(p)
	}
}
