package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-series/analysis"
	"github.com/cwbudde/algo-series/internal/fitcommon"
	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render candidate from the preset")
	presetPath := flag.String("preset", "", "Preset JSON path for rendered candidate (defaults when empty)")
	note := flag.Int("note", 69, "MIDI note for rendered candidate and harmonic analysis")
	velocity := flag.Int("velocity", 100, "MIDI velocity for rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	duration := flag.Float64("duration", 2.0, "Rendered candidate duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Note hold time before NoteOff for rendered candidate")
	harmonics := flag.Int("harmonics", series.HarmonicsCount, "Partials in the harmonic term (0 disables it)")
	profile := flag.Bool("profile", false, "Print the per-partial level table")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := fitcommon.ReadWAVMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		if cand, err = fitcommon.ReadWAVMonoAt(*candidatePath, *sampleRate); err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		params := series.NewDefaultParams()
		if *presetPath != "" {
			if params, err = preset.LoadJSON(*presetPath); err != nil {
				die("failed to load preset: %v", err)
			}
		}
		vel := float32(fitcommon.Clamp(float64(*velocity)/127, 0, 1))
		mono32 := renderNote(params, *note, vel, *sampleRate, *duration, *releaseAfter)
		if *writeCandidate != "" {
			if err := fitcommon.WriteMonoWAV(*writeCandidate, mono32, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
		cand = make([]float64, len(mono32))
		for i, v := range mono32 {
			cand[i] = float64(v)
		}
	}

	f0 := 440 * math.Pow(2, float64(*note-69)/12)
	opt := analysis.Options{Harmonics: *harmonics, MaxSeconds: *duration}
	if *harmonics > 0 {
		opt.FundamentalHz = f0
	}
	metrics := analysis.Compare(ref, cand, *sampleRate, opt)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Compared frames:  %d\n", metrics.ComparedFrames)
	fmt.Println()
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	if opt.FundamentalHz > 0 {
		fmt.Printf("Harmonic RMSE:    %.2f dB (f0 %.2f Hz)\n", metrics.HarmonicRMSEDB, f0)
	}
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)

	if *profile && *harmonics > 0 {
		printProfile(ref, cand, *sampleRate, f0, *harmonics)
	}
}

func printProfile(ref, cand []float64, sampleRate int, f0 float64, count int) {
	rp, err := analysis.HarmonicProfile(ref, sampleRate, f0, count)
	if err != nil {
		die("reference profile: %v", err)
	}
	cp, err := analysis.HarmonicProfile(cand, sampleRate, f0, count)
	if err != nil {
		die("candidate profile: %v", err)
	}
	fmt.Println()
	fmt.Printf("  n      Hz     ref dB   cand dB    diff\n")
	for i := range rp {
		r := relDB(rp[i], rp[0])
		c := relDB(cp[i], cp[0])
		fmt.Printf("%3d %8.1f %9.1f %9.1f %7.1f\n", i+1, f0*float64(i+1), r, c, c-r)
	}
}

// relDB is the level of v relative to ref in dB, floored at -120.
func relDB(v, ref float64) float64 {
	if v <= 0 || ref <= 0 {
		return -120
	}
	return math.Max(20*math.Log10(v/ref), -120)
}

func renderNote(p *series.Params, note int, velocity float32, sampleRate int, duration, releaseAfter float64) []float32 {
	frames := int(duration * float64(sampleRate))
	if frames < 1 {
		frames = 1
	}
	release := int(releaseAfter * float64(sampleRate))
	e := series.NewEngine(float32(sampleRate), 4)
	out := make([]float32, frames)
	const blockSize = 256
	for pos := 0; pos < frames; pos += blockSize {
		n := min(blockSize, frames-pos)
		var events []series.Event
		if pos == 0 {
			events = append(events, series.NoteOnAt(0, note, velocity))
		}
		if release >= pos && release < pos+n {
			events = append(events, series.NoteOffAt(release-pos, note))
		}
		e.ProcessBlock([][]float32{out[pos : pos+n]}, events, p)
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
