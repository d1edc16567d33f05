// Package randengine wraps golang.org/x/exp/rand with the small set of
// helpers the driving core needs: seeded per-vehicle noise draws and
// thread-safe access when an engine is shared across goroutines.
package randengine

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Engine is a seeded random source. Vehicles spawned with the same seed
// reproduce identical personality noise, keeping a tick deterministic.
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New creates an engine seeded deterministically from seed.
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// NormFloat64Safe draws a standard-normal sample, safe for concurrent callers.
func (e *Engine) NormFloat64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.NormFloat64()
}

// Float64Safe draws a uniform [0,1) sample, safe for concurrent callers.
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// PTrue reports true with probability p (non thread-safe, for callers that
// already own exclusive access to the engine, e.g. a single vehicle update).
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}
