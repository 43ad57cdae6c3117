package analyzers

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

// FormantParams configures formant tracking.
type FormantParams struct {
	TimeStep     float64 `json:"time_step"`
	MaxFormants  int     `json:"max_formants"`
	MaxFormantHz float64 `json:"max_formant_hz"` // the signal is resampled to twice this rate
	WindowLength float64 `json:"window_length"`  // effective length; frames span twice this
	PreEmphasis  float64 `json:"pre_emphasis"`   // Hz above which +6 dB/octave is applied
}

// DefaultFormantParams returns the defaults used for the bandwidth feature.
func DefaultFormantParams() FormantParams {
	return FormantParams{
		TimeStep:     0.02,
		MaxFormants:  3,
		MaxFormantHz: 3000,
		WindowLength: 0.025,
		PreEmphasis:  50,
	}
}

// Formant is a single vocal tract resonance.
type Formant struct {
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
}

// FormantTrack holds the formants found in each frame, lowest first.
type FormantTrack struct {
	TimeStep float64     `json:"time_step"`
	Times    []float64   `json:"times"`
	Frames   [][]Formant `json:"frames"`
}

// BandwidthAt returns the bandwidth of formant n (1-based) at time t, linearly
// interpolated between frames. NaN outside the track or where a neighbouring
// frame lacks formant n.
func (ft *FormantTrack) BandwidthAt(n int, t float64) float64 {
	count := len(ft.Frames)
	if count == 0 || n < 1 || ft.TimeStep <= 0 || len(ft.Times) != count {
		return math.NaN()
	}

	pos := (t - ft.Times[0]) / ft.TimeStep
	if pos < -0.5 || pos > float64(count-1)+0.5 {
		return math.NaN()
	}

	get := func(i int) float64 {
		if n > len(ft.Frames[i]) {
			return math.NaN()
		}
		return ft.Frames[i][n-1].Bandwidth
	}

	left := int(math.Floor(pos))
	frac := pos - float64(left)
	if left < 0 {
		left, frac = 0, 0
	}
	if left >= count-1 {
		left, frac = count-1, 0
	}

	lv := get(left)
	if frac == 0 {
		return lv
	}
	rv := get(left + 1)
	if math.IsNaN(lv) || math.IsNaN(rv) {
		return math.NaN()
	}
	return lv + frac*(rv-lv)
}

// BurgFormantTracker estimates formants from the roots of a Burg LPC model
// fitted to pre-emphasized, Hann-windowed frames.
type BurgFormantTracker struct {
	windows *WindowGenerator
	logger  logging.Logger
}

// NewBurgFormantTracker creates a formant tracker.
func NewBurgFormantTracker(logger logging.Logger) *BurgFormantTracker {
	return &BurgFormantTracker{
		windows: NewWindowGenerator(),
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "formant_tracker",
		}),
	}
}

// TrackFormants computes the formant track of sig.
func (t *BurgFormantTracker) TrackFormants(sig *audio.Signal, p FormantParams) (*FormantTrack, error) {
	if sig == nil || sig.SampleRate <= 0 {
		return nil, fmt.Errorf("formant tracking requires a signal with a positive sample rate")
	}
	if p.TimeStep <= 0 || p.WindowLength <= 0 {
		return nil, fmt.Errorf("formant time step and window length must be positive")
	}
	if p.MaxFormants < 1 || p.MaxFormantHz <= 0 {
		return nil, fmt.Errorf("invalid formant limits: %d formants up to %g Hz", p.MaxFormants, p.MaxFormantHz)
	}

	samples := sig.Samples
	rate := sig.SampleRate
	if target := int(math.Round(2 * p.MaxFormantHz)); target < rate {
		resampled, err := Resample(samples, rate, target)
		if err != nil {
			return nil, fmt.Errorf("failed to resample for formant analysis: %w", err)
		}
		samples, rate = resampled, target
	} else {
		samples = append([]float64(nil), samples...)
	}

	preEmphasize(samples, rate, p.PreEmphasis)

	windowDur := 2 * p.WindowLength
	windowLen := int(math.Round(windowDur * float64(rate)))
	order := 2 * p.MaxFormants
	duration := float64(len(samples)) / float64(rate)
	layout := newFrameLayout(duration, windowDur, p.TimeStep)

	track := &FormantTrack{
		TimeStep: p.TimeStep,
		Times:    layout.times(),
		Frames:   make([][]Formant, layout.count),
	}
	if layout.count == 0 {
		return track, nil
	}
	if windowLen <= order {
		return nil, fmt.Errorf("formant window of %d samples too short for order %d", windowLen, order)
	}

	win, err := t.windows.Hann(windowLen)
	if err != nil {
		return nil, err
	}

	empty := 0
	for i := range layout.count {
		frame := extractFrame(samples, rate, layout.time(i), windowDur, windowLen)
		for j := range frame {
			frame[j] *= win[j]
		}

		coeffs, ok := burg(frame, order)
		if !ok {
			empty++
			continue
		}
		formants := formantsFromLPC(coeffs, float64(rate))
		if len(formants) > p.MaxFormants {
			formants = formants[:p.MaxFormants]
		}
		track.Frames[i] = formants
	}

	t.logger.Debug("Formant tracking completed", logging.Fields{
		"frames":       layout.count,
		"empty_frames": empty,
		"sample_rate":  rate,
	})
	return track, nil
}

func preEmphasize(samples []float64, rate int, from float64) {
	if from <= 0 {
		return
	}
	alpha := math.Exp(-2 * math.Pi * from / float64(rate))
	for i := len(samples) - 1; i > 0; i-- {
		samples[i] -= alpha * samples[i-1]
	}
}

// burg fits prediction coefficients d so that x[n] ≈ Σ d[k]·x[n-1-k].
// It reports false when the frame carries no energy.
func burg(x []float64, order int) ([]float64, bool) {
	n := len(x)
	if n <= order || order < 1 {
		return nil, false
	}

	fwd := append([]float64(nil), x[:n-1]...)
	bwd := append([]float64(nil), x[1:]...)
	d := make([]float64, order)
	prev := make([]float64, order)

	for k := 0; k < order; k++ {
		num, den := 0.0, 0.0
		for j := 0; j < n-k-1; j++ {
			num += fwd[j] * bwd[j]
			den += fwd[j]*fwd[j] + bwd[j]*bwd[j]
		}
		if den == 0 {
			return nil, false
		}

		d[k] = 2 * num / den
		for i := 0; i < k; i++ {
			d[i] = prev[i] - d[k]*prev[k-1-i]
		}
		if k == order-1 {
			break
		}

		copy(prev[:k+1], d[:k+1])
		for j := 0; j < n-k-2; j++ {
			fwd[j] -= prev[k] * bwd[j]
			bwd[j] = bwd[j+1] - prev[k]*fwd[j+1]
		}
	}
	return d, true
}

// formantsFromLPC converts the roots of 1 - Σ d[k]·z^-(k+1) into formants
// sorted by frequency.
func formantsFromLPC(d []float64, rate float64) []Formant {
	p := len(d)
	companion := mat.NewDense(p, p, nil)
	for k := range p {
		companion.Set(0, k, d[k])
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil
	}
	roots := eig.Values(nil)

	nyquist := rate / 2
	formants := make([]Formant, 0, p/2)
	for _, z := range roots {
		if imag(z) <= 0 {
			continue
		}
		mag := cmplx.Abs(z)
		if mag == 0 {
			continue
		}
		if mag > 1 {
			// reflect into the unit circle
			mag = 1 / mag
		}
		freq := math.Abs(cmplx.Phase(z)) * rate / (2 * math.Pi)
		bw := -math.Log(mag) * rate / math.Pi
		if freq <= 50 || freq >= nyquist-50 || math.IsNaN(bw) || math.IsInf(bw, 0) {
			continue
		}
		formants = append(formants, Formant{Frequency: freq, Bandwidth: bw})
	}

	sort.Slice(formants, func(i, j int) bool {
		return formants[i].Frequency < formants[j].Frequency
	})
	return formants
}
