package prosody

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution locates one feature on the standard normal curve.
type Distribution struct {
	Feature    FeatureName `json:"feature" yaml:"feature"`
	ZScore     float64     `json:"zScore" yaml:"zScore"`
	Percentile float64     `json:"percentile" yaml:"percentile"` // 0-100
}

// Percentile returns Φ(z)·100.
func Percentile(z float64) float64 {
	return distuv.UnitNormal.CDF(z) * 100
}

// Report returns the distribution position of each requested feature, in the
// order requested. With no features it reports ScoredFeatures.
func Report(z ZScores, features ...FeatureName) ([]Distribution, error) {
	if len(features) == 0 {
		features = ScoredFeatures
	}

	out := make([]Distribution, 0, len(features))
	for _, f := range features {
		if !f.IsScored() {
			return nil, NewError(ErrCodeInvalidFeature, "",
				fmt.Sprintf("feature %q cannot be reported, choose from %v", f, ScoredFeatures), nil)
		}
		score, ok := z[f]
		if !ok {
			return nil, NewError(ErrCodeInvalidFeature, "",
				fmt.Sprintf("no z-score for feature %q", f), nil)
		}
		out = append(out, Distribution{
			Feature:    f,
			ZScore:     score,
			Percentile: Percentile(score),
		})
	}
	return out, nil
}
