package analyzers

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

// referencePressureSquared is the square of the 20 µPa hearing threshold.
const referencePressureSquared = 4e-10

// IntensityParams configures intensity tracking.
type IntensityParams struct {
	// MinPitch sets the window to 3.2/MinPitch seconds so a period of the
	// lowest expected pitch does not ripple the contour.
	MinPitch float64 `json:"min_pitch"`

	// TimeStep between frames; 0 selects 0.8/MinPitch.
	TimeStep float64 `json:"time_step"`

	SubtractMean bool `json:"subtract_mean"`
}

// DefaultIntensityParams returns the defaults used for the intensity feature.
func DefaultIntensityParams() IntensityParams {
	return IntensityParams{
		MinPitch:     100,
		TimeStep:     0,
		SubtractMean: true,
	}
}

// IntensityTrack holds one dB value per frame.
type IntensityTrack struct {
	TimeStep float64   `json:"time_step"`
	Times    []float64 `json:"times"`
	Values   []float64 `json:"values"`
}

// IntensityAnalyzer computes a Hann-weighted short-term energy contour in dB.
type IntensityAnalyzer struct {
	windows *WindowGenerator
	logger  logging.Logger
}

// NewIntensityAnalyzer creates an intensity analyzer.
func NewIntensityAnalyzer(logger logging.Logger) *IntensityAnalyzer {
	return &IntensityAnalyzer{
		windows: NewWindowGenerator(),
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "intensity_analyzer",
		}),
	}
}

// TrackIntensity computes the intensity contour of sig. Frames quieter than
// the reference are reported as 0 dB.
func (a *IntensityAnalyzer) TrackIntensity(sig *audio.Signal, p IntensityParams) (*IntensityTrack, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return nil, fmt.Errorf("intensity tracking requires a signal with a positive sample rate")
	}
	if p.MinPitch <= 0 {
		return nil, fmt.Errorf("minimum pitch must be positive, got %g", p.MinPitch)
	}
	if p.TimeStep < 0 {
		return nil, fmt.Errorf("intensity time step must not be negative, got %g", p.TimeStep)
	}

	step := p.TimeStep
	if step == 0 {
		step = 0.8 / p.MinPitch
	}
	windowDur := 3.2 / p.MinPitch
	windowLen := max(1, int(math.Round(windowDur*float64(sig.SampleRate))))
	layout := newFrameLayout(sig.Duration(), windowDur, step)

	track := &IntensityTrack{
		TimeStep: step,
		Times:    layout.times(),
		Values:   make([]float64, layout.count),
	}
	if layout.count == 0 {
		return track, nil
	}

	win, err := a.windows.Hann(windowLen)
	if err != nil {
		return nil, err
	}
	weight := 0.0
	for _, w := range win {
		weight += w
	}

	for i := range layout.count {
		frame := extractFrame(sig.Samples, sig.SampleRate, layout.time(i), windowDur, windowLen)
		if p.SubtractMean {
			removeMean(frame)
		}
		power := 0.0
		for j, v := range frame {
			power += win[j] * v * v
		}
		power /= weight

		db := 0.0
		if power > 0 {
			db = math.Max(0, 10*math.Log10(power/referencePressureSquared))
		}
		track.Values[i] = db
	}

	a.logger.Debug("Intensity tracking completed", logging.Fields{
		"frames":    layout.count,
		"time_step": step,
	})
	return track, nil
}
