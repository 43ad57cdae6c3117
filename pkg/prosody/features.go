package prosody

import (
	"fmt"
	"strings"
)

// FeatureName identifies one of the extracted prosodic measurements.
type FeatureName string

const (
	MeanPitch       FeatureName = "meanPitch"
	AvgBand1        FeatureName = "avgBand1"
	IntensityMean   FeatureName = "intensityMean"
	PercentUnvoiced FeatureName = "percentUnvoiced"
	AvgDurPause     FeatureName = "avgDurPause"
)

// AllFeatures lists every extracted feature in presentation order.
var AllFeatures = []FeatureName{MeanPitch, AvgBand1, IntensityMean, PercentUnvoiced, AvgDurPause}

// ScoredFeatures are the features that carry score weights and are reported
// by default.
var ScoredFeatures = []FeatureName{AvgBand1, IntensityMean, PercentUnvoiced, AvgDurPause}

// ParseFeatureName resolves a feature name case-insensitively.
func ParseFeatureName(s string) (FeatureName, error) {
	for _, f := range AllFeatures {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", NewError(ErrCodeInvalidFeature, "", fmt.Sprintf("unknown feature %q", s), nil)
}

// IsScored reports whether f is one of ScoredFeatures.
func (f FeatureName) IsScored() bool {
	for _, s := range ScoredFeatures {
		if s == f {
			return true
		}
	}
	return false
}

func (f FeatureName) String() string {
	return string(f)
}

// FeatureSet holds the raw measurements of one recording.
type FeatureSet struct {
	MeanPitch       float64 `json:"meanPitch" yaml:"meanPitch"`             // Hz
	AvgBand1        float64 `json:"avgBand1" yaml:"avgBand1"`               // Hz
	IntensityMean   float64 `json:"intensityMean" yaml:"intensityMean"`     // dB
	PercentUnvoiced float64 `json:"percentUnvoiced" yaml:"percentUnvoiced"` // [0,1]
	AvgDurPause     float64 `json:"avgDurPause" yaml:"avgDurPause"`         // seconds
}

// Get returns the value of a named feature.
func (fs FeatureSet) Get(name FeatureName) (float64, bool) {
	switch name {
	case MeanPitch:
		return fs.MeanPitch, true
	case AvgBand1:
		return fs.AvgBand1, true
	case IntensityMean:
		return fs.IntensityMean, true
	case PercentUnvoiced:
		return fs.PercentUnvoiced, true
	case AvgDurPause:
		return fs.AvgDurPause, true
	}
	return 0, false
}

// Values returns the features keyed by name.
func (fs FeatureSet) Values() map[FeatureName]float64 {
	out := make(map[FeatureName]float64, len(AllFeatures))
	for _, f := range AllFeatures {
		v, _ := fs.Get(f)
		out[f] = v
	}
	return out
}
