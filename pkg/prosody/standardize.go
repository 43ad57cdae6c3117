package prosody

// ZScores maps features to standardized values.
type ZScores map[FeatureName]float64

// Standardize converts raw values to z-scores against baseline. Features
// missing from the baseline are left out of the result.
func Standardize(raw map[FeatureName]float64, baseline Baseline) ZScores {
	z := make(ZScores, len(raw))
	for name, value := range raw {
		stat, ok := baseline[name]
		if !ok {
			continue
		}
		z[name] = (value - stat.Mean) / stat.EffectiveStd()
	}
	return z
}

// Destandardize maps a z-score back to the raw scale of baseline.
func Destandardize(z float64, stat BaselineStat) float64 {
	return z*stat.EffectiveStd() + stat.Mean
}
