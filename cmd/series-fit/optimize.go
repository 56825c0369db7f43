package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-series/analysis"
	"github.com/cwbudde/algo-series/series"
	"github.com/cwbudde/mayfly"
)

type optimizationConfig struct {
	reference          []float64
	baseParams         *series.Params
	defs               []knobDef
	initCandidate      candidate
	render             renderConfig
	compare            analysis.Options
	seed               int64
	timeBudget         float64
	maxEvals           int
	reportEvery        int
	checkpointEvery    int
	mayflyVariant      string
	mayflyPop          int
	mayflyRoundEvals   int
	workers            int
	outputPreset       string
	reportPath         string
	referencePath      string
	presetPath         string
	writeBestCandidate string
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	evals       int
	elapsed     float64
	checkpoints int
}

// Penalties returned to mayfly for positions that were not scored.
const (
	penaltyOutOfBudget = 1.0
	penaltyInvalid     = 0.8
)

var mayflyVariants = map[string]func() *mayfly.Config{
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

func (cfg *optimizationConfig) evaluate(c candidate) (analysis.Metrics, error) {
	p, err := applyCandidate(cfg.baseParams, cfg.defs, c)
	if err != nil {
		return analysis.Metrics{}, err
	}
	mono, _, err := renderCandidate(p, cfg.render)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(cfg.reference, mono, cfg.render.sampleRate, cfg.compare), nil
}

// fitter shares the best coefficient set between concurrent mayfly rounds.
// Each worker runs independent rounds; the eval counter is the only budget.
type fitter struct {
	cfg      *optimizationConfig
	variant  string
	start    time.Time
	deadline time.Time

	evals  atomic.Int64
	rounds atomic.Int64

	mu          sync.Mutex
	best        candidate
	bestMetrics analysis.Metrics
	improves    int
	checkpoints int

	persistMu sync.Mutex
	persisted int // improvement number last written to disk
}

// improvement is a consistent copy of the best state right after a new best.
type improvement struct {
	n          int
	eval       int64
	best       candidate
	metrics    analysis.Metrics
	checkpoint bool
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	variant := strings.ToLower(cfg.mayflyVariant)
	if _, ok := mayflyVariants[variant]; !ok {
		return nil, fmt.Errorf("unsupported variant %q (have %s)", variant, strings.Join(variantNames(), "|"))
	}

	f := &fitter{cfg: cfg, variant: variant, start: time.Now()}
	f.deadline = f.start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))

	f.best = cloneCandidate(cfg.initCandidate)
	m, err := cfg.evaluate(f.best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	f.bestMetrics = m
	f.evals.Store(1)
	fmt.Printf("Start score=%.4f similarity=%.2f%% harmonic=%.2f dB\n", m.Score, m.Similarity*100.0, m.HarmonicRMSEDB)

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f.running() {
				if err := f.round(); err != nil {
					fmt.Fprintf(os.Stderr, "%v\n", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	return f.result(), nil
}

func (f *fitter) running() bool {
	return time.Now().Before(f.deadline) && f.evals.Load() < int64(f.cfg.maxEvals)
}

// round runs one mayfly optimization sized to the remaining eval budget.
// A failed setup ends the calling worker; a failed run only ends the round.
func (f *fitter) round() error {
	n := f.rounds.Add(1)
	remaining := f.cfg.maxEvals - int(f.evals.Load())
	iters := maxInt(1, minInt(f.cfg.mayflyRoundEvals, remaining)/(2*f.cfg.mayflyPop))

	mc, err := newMayflyConfig(f.variant, f.cfg.mayflyPop, len(f.cfg.defs), iters)
	if err != nil {
		return fmt.Errorf("mayfly round %d setup failed: %w", n, err)
	}
	mc.Rand = rand.New(rand.NewSource(f.cfg.seed + n*7919))
	mc.ObjectiveFunc = func(pos []float64) float64 {
		return f.objective(n, pos)
	}
	if _, err := runMayfly(mc); err != nil {
		fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", n, err)
	}
	return nil
}

func (f *fitter) objective(round int64, pos []float64) float64 {
	if time.Now().After(f.deadline) {
		return f.bestScore() + penaltyOutOfBudget
	}
	evalNum, ok := f.reserveEval()
	if !ok {
		return f.bestScore() + penaltyOutOfBudget
	}

	cand := fromNormalized(pos, f.cfg.defs)
	m, err := f.cfg.evaluate(cand)
	if err != nil {
		return f.bestScore() + penaltyInvalid
	}
	if imp, ok := f.offer(evalNum, cand, m); ok {
		fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%% harmonic=%.2f dB\n",
			imp.n, imp.eval, imp.metrics.Score, imp.metrics.Similarity*100.0, imp.metrics.HarmonicRMSEDB)
		f.persist(imp)
	}
	if f.cfg.reportEvery > 0 && evalNum%int64(f.cfg.reportEvery) == 0 {
		fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n",
			round, evalNum, time.Since(f.start).Seconds(), f.bestScore())
	}
	return m.Score
}

func (f *fitter) reserveEval() (int64, bool) {
	for {
		cur := f.evals.Load()
		if cur >= int64(f.cfg.maxEvals) {
			return 0, false
		}
		if f.evals.CompareAndSwap(cur, cur+1) {
			return cur + 1, true
		}
	}
}

// offer records cand when it beats the current best.
func (f *fitter) offer(evalNum int64, cand candidate, m analysis.Metrics) (improvement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.Score >= f.bestMetrics.Score {
		return improvement{}, false
	}
	f.best = cloneCandidate(cand)
	f.bestMetrics = m
	f.improves++
	return improvement{
		n:          f.improves,
		eval:       evalNum,
		best:       cloneCandidate(cand),
		metrics:    m,
		checkpoint: f.cfg.checkpointEvery > 0 && f.improves%f.cfg.checkpointEvery == 0,
	}, true
}

// persist writes the snapshot WAV and, when due, a checkpoint. Improvements
// that were overtaken while waiting for the lock are skipped.
func (f *fitter) persist(imp improvement) {
	f.persistMu.Lock()
	defer f.persistMu.Unlock()
	if imp.n <= f.persisted {
		return
	}
	f.persisted = imp.n

	if f.cfg.writeBestCandidate != "" {
		if err := writeBestCandidateSnapshot(f.cfg, imp.best); err != nil {
			fmt.Fprintf(os.Stderr, "failed to update best candidate wav: %v\n", err)
		}
	}
	if !imp.checkpoint {
		return
	}
	f.mu.Lock()
	next := f.checkpoints + 1
	f.mu.Unlock()
	res := &optimizationResult{
		best:        imp.best,
		bestMetrics: imp.metrics,
		evals:       int(f.evals.Load()),
		elapsed:     time.Since(f.start).Seconds(),
		checkpoints: next,
	}
	if err := writeOutputs(f.cfg, res); err != nil {
		fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
		return
	}
	f.mu.Lock()
	f.checkpoints = max(f.checkpoints, next)
	f.mu.Unlock()
}

func (f *fitter) bestScore() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bestMetrics.Score
}

func (f *fitter) result() *optimizationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(f.best),
		bestMetrics: f.bestMetrics,
		evals:       int(f.evals.Load()),
		elapsed:     time.Since(f.start).Seconds(),
		checkpoints: f.checkpoints,
	}
}

func variantNames() []string {
	names := make([]string, 0, len(mayflyVariants))
	for name := range mayflyVariants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	ctor, ok := mayflyVariants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg := ctor()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// NC/2 parent pairs must exist in both populations.
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
