package prosody

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
)

var errNoResult = errors.New("analyzer returned no result")

// ExtractorConfig holds the analysis parameters handed to the collaborators.
type ExtractorConfig struct {
	Pitch     analyzers.PitchParams     `json:"pitch"`
	Intensity analyzers.IntensityParams `json:"intensity"`
	Formant   analyzers.FormantParams   `json:"formant"`
	Silence   analyzers.SilenceParams   `json:"silence"`

	// BandwidthStep is the interval at which F1 bandwidth is sampled.
	BandwidthStep float64 `json:"bandwidth_step"`
}

// DefaultExtractorConfig returns the standard analysis parameters.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Pitch:         analyzers.DefaultPitchParams(),
		Intensity:     analyzers.DefaultIntensityParams(),
		Formant:       analyzers.DefaultFormantParams(),
		Silence:       analyzers.DefaultSilenceParams(),
		BandwidthStep: 0.02,
	}
}

// Validate checks the parameters the extractor itself relies on.
func (c ExtractorConfig) Validate() error {
	if c.Pitch.TimeStep <= 0 {
		return fmt.Errorf("pitch time step must be positive")
	}
	if c.Pitch.Floor <= 0 {
		return fmt.Errorf("pitch floor must be positive")
	}
	if c.BandwidthStep <= 0 {
		return fmt.Errorf("bandwidth sampling step must be positive")
	}
	if c.Silence.SilentLabel == "" {
		return fmt.Errorf("silent label must not be empty")
	}
	return nil
}

// Extractor derives a FeatureSet from a normalized signal.
type Extractor struct {
	collab Collaborators
	cfg    ExtractorConfig
	logger logging.Logger
}

// NewExtractor creates a feature extractor.
func NewExtractor(collab Collaborators, cfg ExtractorConfig, logger logging.Logger) (*Extractor, error) {
	if collab.Pitch == nil || collab.Intensity == nil || collab.Formant == nil || collab.Segmenter == nil {
		return nil, fmt.Errorf("all four signal analyzers are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}
	return &Extractor{
		collab: collab,
		cfg:    cfg,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}, nil
}

// Extract computes the five features. Silent or very short signals yield
// zero-valued features; only a collaborator failure returns an error.
func (e *Extractor) Extract(sig *audio.Signal) (FeatureSet, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return FeatureSet{}, NewError(ErrCodeAnalysis, "", "malformed signal", nil)
	}
	duration := sig.Duration()

	pitch, err := e.collab.Pitch.TrackPitch(sig, e.cfg.Pitch)
	if err == nil && pitch == nil {
		err = errNoResult
	}
	if err != nil {
		return FeatureSet{}, NewError(ErrCodeAnalysis, "", "pitch tracking failed", err)
	}
	voiced := ValidPitches(pitch.Frequencies, e.cfg.Pitch.Floor)

	intensity, err := e.collab.Intensity.TrackIntensity(sig, e.cfg.Intensity)
	if err == nil && intensity == nil {
		err = errNoResult
	}
	if err != nil {
		return FeatureSet{}, NewError(ErrCodeAnalysis, "", "intensity tracking failed", err)
	}

	formants, err := e.collab.Formant.TrackFormants(sig, e.cfg.Formant)
	if err == nil && formants == nil {
		err = errNoResult
	}
	if err != nil {
		return FeatureSet{}, NewError(ErrCodeAnalysis, "", "formant tracking failed", err)
	}
	bandwidths := sampleBandwidths(formants, duration, e.cfg.BandwidthStep)

	tier, err := e.collab.Segmenter.DetectSilences(sig, e.cfg.Silence)
	if err == nil && tier == nil {
		err = errNoResult
	}
	if err != nil {
		return FeatureSet{}, NewError(ErrCodeAnalysis, "", "silence detection failed", err)
	}
	pauses := tier.Durations(e.cfg.Silence.SilentLabel)
	totalSilence := floats.Sum(pauses)

	fs := FeatureSet{
		MeanPitch:       meanOrZero(voiced),
		AvgBand1:        meanOrZero(bandwidths),
		IntensityMean:   meanOrZero(intensity.Values),
		PercentUnvoiced: UnvoicedRatio(duration, totalSilence, len(voiced), e.cfg.Pitch.TimeStep),
		AvgDurPause:     meanOrZero(pauses),
	}

	e.logger.Debug("Features extracted", logging.Fields{
		"duration":         duration,
		"voiced_frames":    len(voiced),
		"bandwidth_points": len(bandwidths),
		"pauses":           len(pauses),
		"total_silence":    totalSilence,
	})
	return fs, nil
}

// ValidPitches drops unvoiced (NaN) frames and values below floor.
func ValidPitches(frequencies []float64, floor float64) []float64 {
	out := make([]float64, 0, len(frequencies))
	for _, f := range frequencies {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < floor {
			continue
		}
		out = append(out, f)
	}
	return out
}

// UnvoicedRatio is the share of speaking time without a pitch estimate.
// Speaking time excludes detected silence, and the result is clamped to
// [0, 1].
func UnvoicedRatio(totalDuration, silenceDuration float64, voicedFrames int, frameStep float64) float64 {
	speaking := totalDuration - silenceDuration
	if speaking <= 0 {
		return 0
	}
	voicedDuration := float64(voicedFrames) * frameStep
	unvoiced := math.Max(0, speaking-voicedDuration)
	return clamp01(unvoiced / speaking)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func sampleBandwidths(track *analyzers.FormantTrack, duration, step float64) []float64 {
	if track == nil {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		t := float64(i) * step
		if t >= duration {
			break
		}
		bw := track.BandwidthAt(1, t)
		if math.IsNaN(bw) || math.IsInf(bw, 0) {
			continue
		}
		out = append(out, bw)
	}
	return out
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
