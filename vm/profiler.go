// Type profiling (spec §4.4): per-site observed-type histograms recorded on
// every stack-slot/variable write at designated observation sites, cheap
// enough (a single map-bump behind one mutex) to run on every VM
// store, and consulted once a region is hot enough to offer the JIT a
// dominant type or report "polymorphic". Grounded on wudi-hey's
// compiler/jit/hotspot.go counters, generalized from that teacher's
// call-count-only hotspot tracking to the spec's per-site type histogram.
package vm

import (
	"sync"

	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/values"
)

// siteKey identifies an observation site: a specific instruction index
// within a specific chunk. A *bytecode.Chunk's pointer identity is stable
// for the runtime's lifetime (spec §3 invariant 5: function bodies are
// "logically immortal"), so it doubles as the chunk half of the key.
type siteKey struct {
	chunk *bytecode.Chunk
	ip    int
}

// Profiler owns every site's histogram plus the hotness counters that
// trigger tier promotion (spec §4.3) and JIT compilation (spec §4.5).
type Profiler struct {
	mu   sync.Mutex
	hist map[siteKey]*histogram

	funcCalls map[interface{}]int // Function identity -> invocation count (interpreter->VM threshold)
	loopIters map[siteKey]int     // JumpBack site -> iteration count (VM->JIT threshold)
}

type histogram struct {
	counts  map[values.Type]int
	total   int
}

func NewProfiler() *Profiler {
	return &Profiler{
		hist:      make(map[siteKey]*histogram),
		funcCalls: make(map[interface{}]int),
		loopIters: make(map[siteKey]int),
	}
}

// Observe records one sample of v's type at the given site. O(1), per
// spec §4.4's "hundreds of nanoseconds" budget.
func (p *Profiler) Observe(chunkID *bytecode.Chunk, ip int, v values.Value) {
	key := siteKey{chunk: chunkID, ip: ip}
	p.mu.Lock()
	h, ok := p.hist[key]
	if !ok {
		h = &histogram{counts: make(map[values.Type]int)}
		p.hist[key] = h
	}
	h.counts[v.Type()]++
	h.total++
	p.mu.Unlock()
}

// DominantTypeThreshold and DominantTypeMinSamples implement spec §4.4's
// "≥95% of observations share a tag and ≥N samples collected" contract.
const (
	DominantTypeThreshold   = 0.95
	DominantTypeMinSamples  = 8
)

// DominantType returns the site's dominant type tag and true if one meets
// the threshold; otherwise the site is "polymorphic" (ok=false) and the
// JIT must fall back to generic dispatch there.
func (p *Profiler) DominantType(chunkID *bytecode.Chunk, ip int) (values.Type, bool) {
	key := siteKey{chunk: chunkID, ip: ip}
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.hist[key]
	if !ok || h.total < DominantTypeMinSamples {
		return 0, false
	}
	var bestType values.Type
	bestCount := 0
	for t, c := range h.counts {
		if c > bestCount {
			bestType, bestCount = t, c
		}
	}
	if float64(bestCount)/float64(h.total) >= DominantTypeThreshold {
		return bestType, true
	}
	return 0, false
}

// RecordCall bumps fn's invocation counter and reports whether it just
// crossed threshold (promotion fires exactly once per function, at the
// call where the counter reaches the threshold).
func (p *Profiler) RecordCall(fn *values.Function, threshold int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.funcCalls[fn]++
	return p.funcCalls[fn] == threshold
}

// RecordBackEdge bumps the loop-iteration counter for a JumpBack site and
// reports whether it just crossed threshold (spec §4.3's "~100 loop
// iterations").
func (p *Profiler) RecordBackEdge(chunkID *bytecode.Chunk, ip int, threshold int) bool {
	key := siteKey{chunk: chunkID, ip: ip}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopIters[key]++
	return p.loopIters[key] == threshold
}

// Report renders a human-readable summary (spec §4.4: "must be observable
// via profiling output"), consumed by the CLI's --profile flag and by
// stats.Collector's Prometheus export.
func (p *Profiler) Report() ProfileReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := ProfileReport{}
	for key, h := range p.hist {
		dominant, has := values.Type(0), false
		if h.total >= DominantTypeMinSamples {
			bestType, bestCount := values.Type(0), 0
			for t, c := range h.counts {
				if c > bestCount {
					bestType, bestCount = t, c
				}
			}
			if float64(bestCount)/float64(h.total) >= DominantTypeThreshold {
				dominant, has = bestType, true
			}
		}
		r.Sites = append(r.Sites, SiteReport{
			Chunk: key.chunk.Name, IP: key.ip, Samples: h.total,
			Dominant: dominant, Monomorphic: has,
		})
	}
	for key, n := range p.loopIters {
		r.HotLoops = append(r.HotLoops, LoopReport{Chunk: key.chunk.Name, IP: key.ip, Iterations: n})
	}
	return r
}

type SiteReport struct {
	Chunk       string
	IP          int
	Samples     int
	Dominant    values.Type
	Monomorphic bool
}

type LoopReport struct {
	Chunk      string
	IP         int
	Iterations int
}

type ProfileReport struct {
	Sites    []SiteReport
	HotLoops []LoopReport
}
