package analyzers

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
)

func voicedFrequencies(track *PitchTrack) []float64 {
	var out []float64
	for _, f := range track.Frequencies {
		if !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return s[len(s)/2]
}

func TestYinPitchTracker_Tones(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	testCases := []struct {
		name string
		freq float64
	}{
		{"low male", 110},
		{"male", 130},
		{"female", 200},
		{"high", 320},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			samples := addNoise(sineWave(tc.freq, 0.5, 2.0, testSampleRate), 0.01, 7)
			track, err := tracker.TrackPitch(newTestSignal(t, samples), DefaultPitchParams())
			require.NoError(t, err)

			voiced := voicedFrequencies(track)
			require.NotEmpty(t, voiced)
			assert.Greater(t, len(voiced), len(track.Frequencies)*9/10)
			assert.InDelta(t, tc.freq, median(voiced), 2.0)
		})
	}
}

func TestYinPitchTracker_FrameGrid(t *testing.T) {
	tracker := NewYinPitchTracker(nil)

	track, err := tracker.TrackPitch(newTestSignal(t, sineWave(200, 0.5, 3.0, testSampleRate)), DefaultPitchParams())
	require.NoError(t, err)

	// 60 ms window, 20 ms step over 3 s
	assert.Len(t, track.Frequencies, 148)
	assert.Len(t, track.Times, 148)
	assert.InDelta(t, 0.02, track.Times[1]-track.Times[0], 1e-12)
}

func TestYinPitchTracker_SilenceIsUnvoiced(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	track, err := tracker.TrackPitch(newTestSignal(t, make([]float64, testSampleRate)), DefaultPitchParams())
	require.NoError(t, err)
	require.NotEmpty(t, track.Frequencies)
	for _, f := range track.Frequencies {
		assert.True(t, math.IsNaN(f))
	}
	assert.Empty(t, voicedFrequencies(track))
}

func TestYinPitchTracker_QuietFramesAreUnvoiced(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	samples := concat(
		sineWave(150, 0.8, 1.0, testSampleRate),
		make([]float64, testSampleRate),
	)
	track, err := tracker.TrackPitch(newTestSignal(t, samples), DefaultPitchParams())
	require.NoError(t, err)

	for i, tm := range track.Times {
		if tm > 1.1 {
			assert.True(t, math.IsNaN(track.Frequencies[i]), "frame at %.2fs", tm)
		}
	}
}

func TestYinPitchTracker_ShortSignal(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	// shorter than one 60 ms window
	track, err := tracker.TrackPitch(newTestSignal(t, sineWave(200, 0.5, 0.03, testSampleRate)), DefaultPitchParams())
	require.NoError(t, err)
	assert.Empty(t, track.Frequencies)
}

func TestYinPitchTracker_InvalidParams(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())
	sig := newTestSignal(t, sineWave(200, 0.5, 0.5, testSampleRate))

	p := DefaultPitchParams()
	p.TimeStep = 0
	_, err := tracker.TrackPitch(sig, p)
	assert.Error(t, err)

	p = DefaultPitchParams()
	p.Ceiling = p.Floor
	_, err = tracker.TrackPitch(sig, p)
	assert.Error(t, err)

	p = DefaultPitchParams()
	p.VoicingThreshold = 1
	_, err = tracker.TrackPitch(sig, p)
	assert.Error(t, err)

	_, err = tracker.TrackPitch(nil, DefaultPitchParams())
	assert.Error(t, err)
}

func TestYinPitchTracker_NoiseIsUnvoiced(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	track, err := tracker.TrackPitch(newTestSignal(t, addNoise(make([]float64, testSampleRate), 0.3, 3)), DefaultPitchParams())
	require.NoError(t, err)
	require.NotEmpty(t, track.Frequencies)
	assert.Less(t, len(voicedFrequencies(track)), len(track.Frequencies)/10)
}

func TestYinPitchTracker_OutOfRangeIsUnvoiced(t *testing.T) {
	tracker := NewYinPitchTracker(logging.NewNop())

	// 40 Hz sits below the floor and 700 Hz above the ceiling
	for _, freq := range []float64{40, 700} {
		track, err := tracker.TrackPitch(newTestSignal(t, sineWave(freq, 0.5, 1.0, testSampleRate)), DefaultPitchParams())
		require.NoError(t, err)
		for _, f := range voicedFrequencies(track) {
			assert.GreaterOrEqual(t, f, 50.0, "%g Hz tone", freq)
			assert.LessOrEqual(t, f, 500.0, "%g Hz tone", freq)
		}
	}
}
