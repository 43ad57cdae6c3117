package prosody

import "fmt"

// BaselineStat is the reference mean and standard deviation of a feature.
type BaselineStat struct {
	Mean float64 `json:"mean" yaml:"mean" mapstructure:"mean"`
	Std  float64 `json:"std" yaml:"std" mapstructure:"std"`
}

// EffectiveStd returns Std, or 1 when Std is zero.
func (b BaselineStat) EffectiveStd() float64 {
	if b.Std == 0 {
		return 1
	}
	return b.Std
}

// Baseline maps features to their reference statistics for one gender class.
type Baseline map[FeatureName]BaselineStat

// Baselines holds the reference population for each gender class.
type Baselines struct {
	Male   Baseline `json:"male" yaml:"male"`
	Female Baseline `json:"female" yaml:"female"`
}

// For returns the baseline matched to gender.
func (b Baselines) For(g Gender) Baseline {
	if g == Male {
		return b.Male
	}
	return b.Female
}

// Validate rejects negative or non-finite statistics.
func (b Baselines) Validate() error {
	for _, set := range []struct {
		name string
		base Baseline
	}{{"male", b.Male}, {"female", b.Female}} {
		if len(set.base) == 0 {
			return fmt.Errorf("%s baseline is empty", set.name)
		}
		for f, stat := range set.base {
			if stat.Std < 0 {
				return fmt.Errorf("%s baseline for %s has negative std %g", set.name, f, stat.Std)
			}
		}
	}
	return nil
}

// DefaultBaselines returns the built-in reference statistics.
func DefaultBaselines() Baselines {
	return Baselines{
		Male: Baseline{
			MeanPitch:       {Mean: 130.1932, Std: 15.3799},
			AvgBand1:        {Mean: 323.3151, Std: 58.7594},
			IntensityMean:   {Mean: 45.4446, Std: 9.0125},
			PercentUnvoiced: {Mean: 0.3476, Std: 0.0623},
			AvgDurPause:     {Mean: 0.9950, Std: 0.1761},
		},
		Female: Baseline{
			MeanPitch:       {Mean: 218.5149, Std: 21.1525},
			AvgBand1:        {Mean: 314.1851, Std: 42.5445},
			IntensityMean:   {Mean: 50.3322, Std: 5.2173},
			PercentUnvoiced: {Mean: 0.2815, Std: 0.0440},
			AvgDurPause:     {Mean: 1.0560, Std: 0.3177},
		},
	}
}
