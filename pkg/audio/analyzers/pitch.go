package analyzers

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-sonar/algorithms/tonal"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

// PitchParams configures pitch tracking.
type PitchParams struct {
	TimeStep float64 `json:"time_step"` // seconds between frame centres
	Floor    float64 `json:"floor"`     // lowest candidate, Hz
	Ceiling  float64 `json:"ceiling"`   // highest candidate, Hz

	// VoicingThreshold is the minimum periodicity, one minus the YIN
	// cumulative mean normalized difference, for a frame to count as voiced.
	VoicingThreshold float64 `json:"voicing_threshold"`

	// SilenceThreshold is the frame peak, relative to the global peak, under
	// which a frame is unvoiced without further analysis.
	SilenceThreshold float64 `json:"silence_threshold"`
}

// DefaultPitchParams returns speech-oriented defaults.
func DefaultPitchParams() PitchParams {
	return PitchParams{
		TimeStep:         0.02,
		Floor:            50,
		Ceiling:          500,
		VoicingThreshold: 0.8,
		SilenceThreshold: 0.03,
	}
}

// PitchTrack holds one F0 estimate per frame. Unvoiced frames are NaN.
type PitchTrack struct {
	TimeStep    float64   `json:"time_step"`
	Times       []float64 `json:"times"`
	Frequencies []float64 `json:"frequencies"`
}

// YinPitchTracker estimates F0 per frame with the sonido-sonar YIN detector.
// Frames span three periods of the floor so the lowest candidate still fits
// twice in the difference function.
type YinPitchTracker struct {
	logger logging.Logger
}

// NewYinPitchTracker creates a pitch tracker.
func NewYinPitchTracker(logger logging.Logger) *YinPitchTracker {
	return &YinPitchTracker{
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "pitch_tracker",
		}),
	}
}

// TrackPitch computes the pitch contour of sig.
func (t *YinPitchTracker) TrackPitch(sig *audio.Signal, p PitchParams) (*PitchTrack, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return nil, fmt.Errorf("pitch tracking requires a signal with a positive sample rate")
	}
	if p.TimeStep <= 0 {
		return nil, fmt.Errorf("pitch time step must be positive, got %g", p.TimeStep)
	}
	if p.Floor <= 0 || p.Ceiling <= p.Floor {
		return nil, fmt.Errorf("invalid pitch range [%g, %g]", p.Floor, p.Ceiling)
	}
	if p.VoicingThreshold <= 0 || p.VoicingThreshold >= 1 {
		return nil, fmt.Errorf("voicing threshold must be in (0, 1), got %g", p.VoicingThreshold)
	}

	sr := float64(sig.SampleRate)
	ceiling := math.Min(p.Ceiling, sr/2)

	windowDur := 3.0 / p.Floor
	windowLen := int(math.Round(windowDur * sr))
	layout := newFrameLayout(sig.Duration(), windowDur, p.TimeStep)

	track := &PitchTrack{
		TimeStep:    p.TimeStep,
		Times:       layout.times(),
		Frequencies: make([]float64, layout.count),
	}
	if layout.count == 0 {
		t.logger.Debug("Signal shorter than one pitch window", logging.Fields{
			"duration": sig.Duration(),
			"window":   windowDur,
		})
		return track, nil
	}

	// The detector keeps history for smoothing and octave correction, both
	// disabled here, so one instance per call keeps frames independent.
	detector := tonal.NewPitchDetectorWithParams(tonal.PitchDetectionParams{
		Method:         tonal.AutocorrelationYin,
		SampleRate:     sig.SampleRate,
		WindowSize:     windowLen,
		HopSize:        int(math.Round(p.TimeStep * sr)),
		MinFreq:        p.Floor,
		MaxFreq:        ceiling,
		YinThreshold:   1 - p.VoicingThreshold,
		MinConfidence:  p.VoicingThreshold,
		WindowFunction: "rectangular",
		ZeroPadding:    1,
	})

	globalPeak := sig.Peak()
	voiced := 0
	for i := range layout.count {
		frame := extractFrame(sig.Samples, sig.SampleRate, layout.time(i), windowDur, windowLen)
		removeMean(frame)

		if globalPeak == 0 || peakAbs(frame) < p.SilenceThreshold*globalPeak {
			track.Frequencies[i] = math.NaN()
			continue
		}

		result, err := detector.DetectPitch(frame)
		if err != nil {
			return nil, fmt.Errorf("pitch detection failed at %.3fs: %w", layout.time(i), err)
		}
		if result.Pitch <= 0 || math.IsNaN(result.Pitch) {
			track.Frequencies[i] = math.NaN()
			continue
		}
		track.Frequencies[i] = result.Pitch
		voiced++
	}

	t.logger.Debug("Pitch tracking completed", logging.Fields{
		"frames":        layout.count,
		"voiced_frames": voiced,
		"window":        windowLen,
	})
	return track, nil
}
