package analysis

import (
	"math"
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate      int     `json:"sample_rate"`
	ReferenceFrames int     `json:"reference_frames"`
	CandidateFrames int     `json:"candidate_frames"`
	ComparedFrames  int     `json:"compared_frames"`
	FundamentalHz   float64 `json:"fundamental_hz,omitempty"`

	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	HarmonicRMSEDB float64 `json:"harmonic_rmse_db"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Options tunes Compare.
type Options struct {
	// FundamentalHz enables the harmonic-profile term when > 0.
	FundamentalHz float64
	// Harmonics is the number of partials in the profile term (default 31).
	Harmonics int
	// MaxSeconds caps the compared length (default 4 s).
	MaxSeconds float64
}

// Compare returns phase-insensitive distance metrics and a combined score in
// [0,1]. Both signals are RMS-normalized, so only shape is compared.
func Compare(reference, candidate []float64, sampleRate int, opt Options) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		FundamentalHz:   opt.FundamentalHz,
		Score:           1,
	}
	if sampleRate <= 0 {
		return m
	}
	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	if n < 512 {
		return m
	}
	if opt.MaxSeconds <= 0 {
		opt.MaxSeconds = 4
	}
	if maxFrames := int(opt.MaxSeconds * float64(sampleRate)); n > maxFrames {
		n = maxFrames
	}
	ref = normalizeRMS(ref[:n], 0.1)
	cand = normalizeRMS(cand[:n], 0.1)
	m.ComparedFrames = n

	refEnv := rmsEnvelope(ref, 256, 128)
	candEnv := rmsEnvelope(cand, 256, 128)
	envDiff := make([]float64, len(refEnv))
	for i := range refEnv {
		envDiff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
	}
	m.EnvelopeRMSEDB = rms1(envDiff)

	refSpec, err := NewSpectrum(ref, sampleRate)
	if err != nil {
		return m
	}
	candSpec, err := NewSpectrum(cand, sampleRate)
	if err != nil {
		return m
	}
	m.SpectralRMSEDB = bandRMSEDB(refSpec, candSpec)

	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	if opt.FundamentalHz > 0 {
		count := opt.Harmonics
		if count <= 0 {
			count = 31
		}
		m.HarmonicRMSEDB = profileRMSEDB(
			refSpec.Harmonics(opt.FundamentalHz, count),
			candSpec.Harmonics(opt.FundamentalHz, count),
		)
		harmNorm := clamp01(m.HarmonicRMSEDB / 30.0)
		m.Score = clamp01(0.2*envNorm + 0.3*specNorm + 0.5*harmNorm)
	} else {
		m.Score = clamp01(0.4*envNorm + 0.6*specNorm)
	}
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// bandRMSEDB compares log band levels from 20 Hz to Nyquist. Bands more than
// 80 dB below the loudest band of either signal count as silent.
func bandRMSEDB(a, b *Spectrum) float64 {
	var la, lb []float64
	nyquist := float64(a.SampleRate) / 2
	for lo := 20.0; lo < nyquist; lo *= 1.26 {
		hi := math.Min(lo*1.26, nyquist)
		la = append(la, linToDB(math.Sqrt(bandEnergy(a, lo, hi))))
		lb = append(lb, linToDB(math.Sqrt(bandEnergy(b, lo, hi))))
	}
	if len(la) == 0 {
		return 0
	}
	floorA := maxOf(la) - 80
	floorB := maxOf(lb) - 80
	var sum float64
	for i := range la {
		d := math.Max(la[i], floorA) - floorA - (math.Max(lb[i], floorB) - floorB)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(la)))
}

func maxOf(x []float64) float64 {
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	return m
}

func bandEnergy(s *Spectrum, loHz, hiHz float64) float64 {
	lo := int(loHz / s.BinHz)
	hi := int(hiHz / s.BinHz)
	if hi > len(s.Mag)-1 {
		hi = len(s.Mag) - 1
	}
	var e float64
	for k := lo; k <= hi; k++ {
		e += s.Mag[k] * s.Mag[k]
	}
	return e
}

// profileRMSEDB compares harmonic amplitudes relative to each profile's
// strongest partial, with a -80 dB floor.
func profileRMSEDB(a, b []float64) float64 {
	ra := relativeDB(a)
	rb := relativeDB(b)
	var sum float64
	for i := range ra {
		d := ra[i] - rb[i]
		sum += d * d
	}
	if len(ra) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(ra)))
}

func relativeDB(p []float64) []float64 {
	peak := 0.0
	for _, v := range p {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(p))
	for i, v := range p {
		db := -80.0
		if peak > 0 {
			db = math.Max(linToDB(v/peak), -80)
		}
		out[i] = db
	}
	return out
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms1(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
