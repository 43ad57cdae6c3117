// Package analyzers implements the signal analyses the prosody extractor is
// built on: pitch, intensity, formant and silence tracking, together with the
// windowing, framing and resampling helpers they share.
package analyzers

import (
	"fmt"
	"sync"

	"github.com/mjibson/go-dsp/window"
)

// WindowGenerator builds and caches Hann analysis windows. Safe for
// concurrent use.
type WindowGenerator struct {
	mu    sync.RWMutex
	cache map[int][]float64
}

// NewWindowGenerator creates an empty window cache.
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{
		cache: make(map[int][]float64),
	}
}

// Hann returns a Hann window of the given size. The returned slice is shared
// and must not be modified.
func (wg *WindowGenerator) Hann(size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	wg.mu.RLock()
	w, ok := wg.cache[size]
	wg.mu.RUnlock()
	if ok {
		return w, nil
	}

	if size == 1 {
		w = []float64{1}
	} else {
		w = window.Hann(size)
	}

	wg.mu.Lock()
	wg.cache[size] = w
	wg.mu.Unlock()
	return w, nil
}
