// Package audio holds the in-memory signal representation shared by the
// preprocessor and the signal analyzers.
package audio

import (
	"fmt"
	"math"
)

// Signal is a mono PCM waveform with samples nominally in [-1, 1].
type Signal struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// NewSignal validates and wraps samples. The slice is copied.
func NewSignal(samples []float64, sampleRate int) (*Signal, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("sample %d is not finite", i)
		}
	}
	cp := make([]float64, len(samples))
	copy(cp, samples)
	return &Signal{Samples: cp, SampleRate: sampleRate}, nil
}

// Len returns the number of samples.
func (s *Signal) Len() int {
	return len(s.Samples)
}

// Duration returns the length of the signal in seconds.
func (s *Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Peak returns the maximum absolute amplitude.
func (s *Signal) Peak() float64 {
	peak := 0.0
	for _, v := range s.Samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root-mean-square amplitude.
func (s *Signal) RMS() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s.Samples)))
}

// ScalePeak returns a copy rescaled so its maximum absolute amplitude equals
// target. A signal without energy is returned unchanged (as a copy).
func (s *Signal) ScalePeak(target float64) *Signal {
	out := &Signal{
		Samples:    make([]float64, len(s.Samples)),
		SampleRate: s.SampleRate,
	}
	peak := s.Peak()
	if peak == 0 {
		copy(out.Samples, s.Samples)
		return out
	}
	gain := target / peak
	for i, v := range s.Samples {
		out.Samples[i] = v * gain
	}
	return out
}
