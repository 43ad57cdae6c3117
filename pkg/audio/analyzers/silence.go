package analyzers

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

const (
	LabelSilent   = "silent"
	LabelSounding = "sounding"
)

// SilenceParams configures silence detection.
type SilenceParams struct {
	MinPitch            float64 `json:"min_pitch"`
	TimeStep            float64 `json:"time_step"`    // 0 = automatic
	ThresholdDB         float64 `json:"threshold_db"` // relative to the loudest frame
	MinSilentDuration   float64 `json:"min_silent_duration"`
	MinSoundingDuration float64 `json:"min_sounding_duration"`
	SilentLabel         string  `json:"silent_label"`
	SoundingLabel       string  `json:"sounding_label"`
}

// DefaultSilenceParams returns the pause-detection defaults.
func DefaultSilenceParams() SilenceParams {
	return SilenceParams{
		MinPitch:            50,
		TimeStep:            0,
		ThresholdDB:         -35,
		MinSilentDuration:   0.5,
		MinSoundingDuration: 0.1,
		SilentLabel:         LabelSilent,
		SoundingLabel:       LabelSounding,
	}
}

// Interval is a labelled span of the signal.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// IntervalTier is a contiguous, ordered sequence of intervals covering the
// signal.
type IntervalTier struct {
	Intervals []Interval `json:"intervals"`
}

// Durations returns the durations of the intervals carrying label, in order.
func (t *IntervalTier) Durations(label string) []float64 {
	var out []float64
	for _, iv := range t.Intervals {
		if iv.Label == label {
			out = append(out, iv.Duration())
		}
	}
	return out
}

// SilenceDetector splits a signal into silent and sounding intervals using an
// intensity threshold relative to the loudest frame.
type SilenceDetector struct {
	intensity *IntensityAnalyzer
	logger    logging.Logger
}

// NewSilenceDetector creates a silence detector.
func NewSilenceDetector(logger logging.Logger) *SilenceDetector {
	logger = logging.OrDefault(logger)
	return &SilenceDetector{
		intensity: NewIntensityAnalyzer(logger),
		logger: logger.WithFields(logging.Fields{
			"component": "silence_detector",
		}),
	}
}

// DetectSilences labels sig into silent and sounding intervals.
func (d *SilenceDetector) DetectSilences(sig *audio.Signal, p SilenceParams) (*IntervalTier, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return nil, fmt.Errorf("silence detection requires a signal with a positive sample rate")
	}
	if p.MinSilentDuration < 0 || p.MinSoundingDuration < 0 {
		return nil, fmt.Errorf("minimum interval durations must not be negative")
	}
	if p.SilentLabel == "" || p.SilentLabel == p.SoundingLabel {
		return nil, fmt.Errorf("silent and sounding labels must be distinct and non-empty")
	}

	duration := sig.Duration()
	tier := &IntervalTier{}
	if duration == 0 {
		return tier, nil
	}

	track, err := d.intensity.TrackIntensity(sig, IntensityParams{
		MinPitch: p.MinPitch,
		TimeStep: p.TimeStep,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute intensity: %w", err)
	}

	whole := func(label string) *IntervalTier {
		tier.Intervals = []Interval{{Start: 0, End: duration, Label: label}}
		return tier
	}

	if len(track.Values) == 0 {
		// too short for a single frame
		if sig.Peak() == 0 {
			return whole(p.SilentLabel), nil
		}
		return whole(p.SoundingLabel), nil
	}

	maxDB := floats.Max(track.Values)
	if maxDB <= 0 {
		return whole(p.SilentLabel), nil
	}
	threshold := maxDB + p.ThresholdDB

	labelOf := func(db float64) string {
		if db < threshold {
			return p.SilentLabel
		}
		return p.SoundingLabel
	}

	start := 0.0
	current := labelOf(track.Values[0])
	for i := 1; i < len(track.Values); i++ {
		label := labelOf(track.Values[i])
		if label == current {
			continue
		}
		boundary := 0.5 * (track.Times[i-1] + track.Times[i])
		tier.Intervals = append(tier.Intervals, Interval{Start: start, End: boundary, Label: current})
		start, current = boundary, label
	}
	tier.Intervals = append(tier.Intervals, Interval{Start: start, End: duration, Label: current})

	tier.Intervals = relabelShort(tier.Intervals, p.SilentLabel, p.SoundingLabel, p.MinSilentDuration)
	tier.Intervals = relabelShort(tier.Intervals, p.SoundingLabel, p.SilentLabel, p.MinSoundingDuration)

	d.logger.Debug("Silence detection completed", logging.Fields{
		"intervals":    len(tier.Intervals),
		"max_db":       maxDB,
		"threshold_db": threshold,
	})
	return tier, nil
}

// relabelShort gives every interval labelled from that is shorter than
// minDuration the label to, then merges neighbours with equal labels. A tier
// with a single interval is left alone.
func relabelShort(intervals []Interval, from, to string, minDuration float64) []Interval {
	if len(intervals) <= 1 {
		return intervals
	}
	for i := range intervals {
		if intervals[i].Label == from && intervals[i].Duration() < minDuration {
			intervals[i].Label = to
		}
	}
	return mergeAdjacent(intervals)
}

func mergeAdjacent(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return intervals
	}
	merged := []Interval{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv.Label == last.Label {
			last.End = iv.End
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
