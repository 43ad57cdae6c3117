package analyzers

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
)

// resonate runs x through a two-pole resonator at freq with bandwidth bw.
func resonate(x []float64, freq, bw float64, sampleRate int) []float64 {
	r := math.Exp(-math.Pi * bw / float64(sampleRate))
	theta := 2 * math.Pi * freq / float64(sampleRate)
	a1, a2 := 2*r*math.Cos(theta), -r*r
	out := make([]float64, len(x))
	for n := range x {
		y := x[n]
		if n >= 1 {
			y += a1 * out[n-1]
		}
		if n >= 2 {
			y += a2 * out[n-2]
		}
		out[n] = y
	}
	return out
}

func syntheticVowel(duration float64) []float64 {
	n := int(duration * testSampleRate)
	src := make([]float64, n)
	period := testSampleRate / 120
	for i := 0; i < n; i += period {
		src[i] = 1
	}
	y := resonate(src, 700, 80, testSampleRate)
	y = resonate(y, 1200, 90, testSampleRate)
	y = resonate(y, 2500, 120, testSampleRate)

	peak := 0.0
	for _, v := range y {
		peak = math.Max(peak, math.Abs(v))
	}
	for i := range y {
		y[i] *= 0.8 / peak
	}
	return y
}

func TestBurg_RecoversARCoefficients(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	x := make([]float64, 8000)
	for n := 2; n < len(x); n++ {
		x[n] = 1.5*x[n-1] - 0.8*x[n-2] + rng.NormFloat64()
	}

	d, ok := burg(x, 2)
	require.True(t, ok)
	assert.InDelta(t, 1.5, d[0], 0.05)
	assert.InDelta(t, -0.8, d[1], 0.05)

	_, ok = burg(make([]float64, 100), 4)
	assert.False(t, ok, "silent frame has no model")
}

func TestFormantsFromLPC_KnownPole(t *testing.T) {
	const rate = 6000.0
	r := 0.95
	theta := 2 * math.Pi * 500 / rate

	formants := formantsFromLPC([]float64{2 * r * math.Cos(theta), -r * r}, rate)
	require.Len(t, formants, 1)
	assert.InDelta(t, 500, formants[0].Frequency, 1e-6)
	assert.InDelta(t, -math.Log(r)*rate/math.Pi, formants[0].Bandwidth, 1e-6)
}

func TestBurgFormantTracker_SyntheticVowel(t *testing.T) {
	tracker := NewBurgFormantTracker(logging.NewNop())

	track, err := tracker.TrackFormants(newTestSignal(t, syntheticVowel(1.0)), DefaultFormantParams())
	require.NoError(t, err)
	require.NotEmpty(t, track.Frames)

	mid := track.Frames[len(track.Frames)/2]
	require.NotEmpty(t, mid)
	f1 := mid[0].Frequency
	b1 := track.BandwidthAt(1, 0.5)
	assert.InDelta(t, 700, f1, 150)
	assert.False(t, math.IsNaN(b1))
	assert.Greater(t, b1, 0.0)

	for _, frame := range track.Frames {
		assert.LessOrEqual(t, len(frame), 3)
		for i := 1; i < len(frame); i++ {
			assert.Less(t, frame[i-1].Frequency, frame[i].Frequency)
		}
	}
}

func TestBurgFormantTracker_SilenceHasNoFormants(t *testing.T) {
	tracker := NewBurgFormantTracker(logging.NewNop())

	track, err := tracker.TrackFormants(newTestSignal(t, make([]float64, testSampleRate)), DefaultFormantParams())
	require.NoError(t, err)
	require.NotEmpty(t, track.Frames)
	assert.True(t, math.IsNaN(track.BandwidthAt(1, 0.5)))
}

func TestFormantTrack_BandwidthAt(t *testing.T) {
	track := &FormantTrack{
		TimeStep: 0.02,
		Times:    []float64{0.05, 0.07, 0.09},
		Frames: [][]Formant{
			{{Frequency: 500, Bandwidth: 100}},
			{{Frequency: 600, Bandwidth: 200}},
			{},
		},
	}

	assert.InDelta(t, 100, track.BandwidthAt(1, 0.05), 1e-9)
	assert.InDelta(t, 150, track.BandwidthAt(1, 0.06), 1e-9)

	// half a step beyond the first frame is still inside the track
	assert.InDelta(t, 100, track.BandwidthAt(1, 0.045), 1e-9)
	assert.True(t, math.IsNaN(track.BandwidthAt(1, 0.0)))
	assert.True(t, math.IsNaN(track.BandwidthAt(1, 0.5)))

	// neighbour without a first formant
	assert.True(t, math.IsNaN(track.BandwidthAt(1, 0.08)))
	assert.True(t, math.IsNaN(track.BandwidthAt(2, 0.05)))
	assert.True(t, math.IsNaN(track.BandwidthAt(0, 0.05)))

	empty := &FormantTrack{TimeStep: 0.02}
	assert.True(t, math.IsNaN(empty.BandwidthAt(1, 0)))
}

func TestBurgFormantTracker_InvalidParams(t *testing.T) {
	tracker := NewBurgFormantTracker(logging.NewNop())
	sig := newTestSignal(t, syntheticVowel(0.2))

	p := DefaultFormantParams()
	p.MaxFormants = 0
	_, err := tracker.TrackFormants(sig, p)
	assert.Error(t, err)

	p = DefaultFormantParams()
	p.TimeStep = 0
	_, err = tracker.TrackFormants(sig, p)
	assert.Error(t, err)
}
