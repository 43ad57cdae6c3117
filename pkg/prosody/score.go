package prosody

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Score names
const (
	ScoreOverall           = "Overall"
	ScoreRecommendedHiring = "RecommendedHiring"
)

// PauseWeighting selects how average pause duration contributes to scores.
// Two revisions of the scoring model disagree on it, so it is an explicit
// choice rather than a constant.
type PauseWeighting string

const (
	// PauseWeightingDisabled gives avgDurPause a zero weight.
	PauseWeightingDisabled PauseWeighting = "disabled"
	// PauseWeightingLegacy restores the earlier non-zero pause weights.
	PauseWeightingLegacy PauseWeighting = "legacy"
)

// ParsePauseWeighting validates a pause weighting name. Empty selects
// PauseWeightingDisabled.
func ParsePauseWeighting(s string) (PauseWeighting, error) {
	switch PauseWeighting(strings.ToLower(strings.TrimSpace(s))) {
	case "", PauseWeightingDisabled:
		return PauseWeightingDisabled, nil
	case PauseWeightingLegacy:
		return PauseWeightingLegacy, nil
	}
	return "", fmt.Errorf("unknown pause weighting %q (want %q or %q)", s, PauseWeightingDisabled, PauseWeightingLegacy)
}

// WeightVector is a named linear scoring model over z-scores.
type WeightVector struct {
	Name    string                  `json:"name" yaml:"name"`
	Weights map[FeatureName]float64 `json:"weights" yaml:"weights"`
}

// DefaultWeightVectors returns the Overall and RecommendedHiring models.
func DefaultWeightVectors(pw PauseWeighting) []WeightVector {
	overallPause, hiringPause := 0.0, 0.0
	if pw == PauseWeightingLegacy {
		overallPause, hiringPause = -0.090, -0.094
	}
	return []WeightVector{
		{
			Name: ScoreOverall,
			Weights: map[FeatureName]float64{
				AvgBand1:        -0.120,
				IntensityMean:   0.065,
				PercentUnvoiced: -0.076,
				AvgDurPause:     overallPause,
			},
		},
		{
			Name: ScoreRecommendedHiring,
			Weights: map[FeatureName]float64{
				AvgBand1:        -0.132,
				IntensityMean:   0.086,
				PercentUnvoiced: -0.111,
				AvgDurPause:     hiringPause,
			},
		},
	}
}

// ScoreResult maps score names to values rounded to four decimals.
type ScoreResult map[string]float64

// Score computes Σ weight·z for every vector. Features without a z-score
// contribute nothing.
func Score(z ZScores, vectors []WeightVector) ScoreResult {
	result := make(ScoreResult, len(vectors))
	for _, v := range vectors {
		total := 0.0
		for _, name := range slices.Sorted(maps.Keys(v.Weights)) {
			total += v.Weights[name] * z[name]
		}
		result[v.Name] = roundTo(total, 4)
	}
	return result
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	r := math.Round(v*scale) / scale
	if r == 0 {
		// drop negative zero
		return 0
	}
	return r
}
