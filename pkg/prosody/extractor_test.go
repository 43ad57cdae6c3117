package prosody

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestUnvoicedRatio(t *testing.T) {
	testCases := []struct {
		name                 string
		total, silence, step float64
		voicedFrames         int
		want                 float64
	}{
		{"half voiced", 4, 2, 0.02, 50, 0.5},
		{"fully voiced", 2, 0, 0.02, 100, 0},
		{"more voiced than speaking", 2, 1, 0.02, 80, 0},
		{"no voicing", 3, 1, 0.02, 0, 1},
		{"all silence", 2, 2, 0.02, 0, 0},
		{"silence exceeds total", 2, 2.5, 0.02, 10, 0},
		{"empty", 0, 0, 0.02, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := UnvoicedRatio(tc.total, tc.silence, tc.voicedFrames, tc.step)
			assert.InDelta(t, tc.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestUnvoicedRatio_AlwaysClamped(t *testing.T) {
	for _, total := range []float64{0, 0.01, 0.5, 1, 3.3, 60} {
		for _, silence := range []float64{0, 0.2, 1, 5} {
			for _, frames := range []int{0, 1, 7, 100, 10000} {
				got := UnvoicedRatio(total, silence, frames, 0.02)
				assert.True(t, got >= 0 && got <= 1, "total=%g silence=%g frames=%d got=%g", total, silence, frames, got)
			}
		}
	}
	assert.Equal(t, 1.0, clamp01(1.0000000001))
	assert.Equal(t, 0.0, clamp01(-1e-12))
	assert.Equal(t, 0.0, clamp01(math.NaN()))
}

func TestValidPitches(t *testing.T) {
	in := []float64{math.NaN(), 49.99, 50, 120, math.Inf(1), 210}
	assert.Equal(t, []float64{50, 120, 210}, ValidPitches(in, 50))
}

func TestExtractor_CorrectionMath(t *testing.T) {
	// 4 s clip, one 1 s pause, 100 voiced frames = 2 s voiced of 3 s speaking
	pitch := append(repeat(150, 100), repeat(math.NaN(), 50)...)
	ext := newFakeExtractor(t, Collaborators{
		Pitch:     &fakePitch{frequencies: pitch},
		Intensity: &fakeIntensity{values: []float64{60, 70, 80}},
		Formant: &fakeFormant{track: &analyzers.FormantTrack{
			TimeStep: 1,
			Times:    []float64{0.5, 1.5, 2.5, 3.5},
			Frames: [][]analyzers.Formant{
				{{Frequency: 500, Bandwidth: 200}},
				{{Frequency: 500, Bandwidth: 200}},
				{{Frequency: 500, Bandwidth: 200}},
				{{Frequency: 500, Bandwidth: 200}},
			},
		}},
		Segmenter: &fakeSegmenter{intervals: []analyzers.Interval{
			{Start: 0, End: 1.5, Label: analyzers.LabelSounding},
			{Start: 1.5, End: 2.5, Label: analyzers.LabelSilent},
			{Start: 2.5, End: 4, Label: analyzers.LabelSounding},
		}},
	})

	fs, err := ext.Extract(testSignal(t, make([]float64, 4*testRate)))
	require.NoError(t, err)

	assert.InDelta(t, 150, fs.MeanPitch, 1e-9)
	assert.InDelta(t, 70, fs.IntensityMean, 1e-9)
	assert.InDelta(t, 200, fs.AvgBand1, 1e-9)
	assert.InDelta(t, 1.0, fs.AvgDurPause, 1e-9)
	assert.InDelta(t, 1.0/3.0, fs.PercentUnvoiced, 1e-9)
}

func TestExtractor_BelowFloorPitch(t *testing.T) {
	ext := newFakeExtractor(t, Collaborators{
		Pitch:     &fakePitch{frequencies: repeat(40, 100)},
		Intensity: &fakeIntensity{values: []float64{55}},
		Formant:   &fakeFormant{},
		Segmenter: &fakeSegmenter{intervals: []analyzers.Interval{{Start: 0, End: 2, Label: analyzers.LabelSounding}}},
	})

	fs, err := ext.Extract(testSignal(t, make([]float64, 2*testRate)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, fs.MeanPitch)
	// no valid frames, so all speaking time is unvoiced
	assert.Equal(t, 1.0, fs.PercentUnvoiced)
	assert.Equal(t, 0.0, fs.AvgBand1)
	assert.Equal(t, 0.0, fs.AvgDurPause)
}

func TestExtractor_EmptyTracksDegenerateToZero(t *testing.T) {
	ext := newFakeExtractor(t, Collaborators{
		Pitch:     &fakePitch{},
		Intensity: &fakeIntensity{},
		Formant:   &fakeFormant{},
		Segmenter: &fakeSegmenter{},
	})

	fs, err := ext.Extract(testSignal(t, nil))
	require.NoError(t, err)
	assert.Equal(t, FeatureSet{}, fs)
}

func TestExtractor_CollaboratorFailure(t *testing.T) {
	ok := Collaborators{
		Pitch:     &fakePitch{},
		Intensity: &fakeIntensity{},
		Formant:   &fakeFormant{},
		Segmenter: &fakeSegmenter{},
	}

	failing := map[string]Collaborators{
		"pitch":     {Pitch: &fakePitch{err: errFake}, Intensity: ok.Intensity, Formant: ok.Formant, Segmenter: ok.Segmenter},
		"intensity": {Pitch: ok.Pitch, Intensity: &fakeIntensity{err: errFake}, Formant: ok.Formant, Segmenter: ok.Segmenter},
		"formant":   {Pitch: ok.Pitch, Intensity: ok.Intensity, Formant: &fakeFormant{err: errFake}, Segmenter: ok.Segmenter},
		"segmenter": {Pitch: ok.Pitch, Intensity: ok.Intensity, Formant: ok.Formant, Segmenter: &fakeSegmenter{err: errFake}},
	}
	for name, collab := range failing {
		t.Run(name, func(t *testing.T) {
			_, err := newFakeExtractor(t, collab).Extract(testSignal(t, make([]float64, testRate)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAnalysis))
			assert.True(t, errors.Is(err, errFake))
		})
	}
}

func TestNewExtractor_RequiresCollaborators(t *testing.T) {
	_, err := NewExtractor(Collaborators{Pitch: &fakePitch{}}, DefaultExtractorConfig(), logging.NewNop())
	assert.Error(t, err)

	cfg := DefaultExtractorConfig()
	cfg.BandwidthStep = 0
	_, err = NewExtractor(Collaborators{
		Pitch: &fakePitch{}, Intensity: &fakeIntensity{}, Formant: &fakeFormant{}, Segmenter: &fakeSegmenter{},
	}, cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestExtractor_RealAnalyzers(t *testing.T) {
	ext := newFakeExtractor(t, DefaultCollaborators(logging.NewNop()))

	t.Run("tone", func(t *testing.T) {
		fs, err := ext.Extract(testSignal(t, noisyTone(200, 0.5, 0.01, 3)))
		require.NoError(t, err)
		assert.InDelta(t, 200, fs.MeanPitch, 5)
		assert.Greater(t, fs.IntensityMean, 0.0)
		assert.Less(t, fs.PercentUnvoiced, 0.1)
		assert.Equal(t, 0.0, fs.AvgDurPause)
	})

	t.Run("silence", func(t *testing.T) {
		fs, err := ext.Extract(testSignal(t, make([]float64, 2*testRate)))
		require.NoError(t, err)
		assert.Equal(t, 0.0, fs.MeanPitch)
		assert.Equal(t, 0.0, fs.PercentUnvoiced)
		assert.InDelta(t, 2.0, fs.AvgDurPause, 1e-9)
		assert.Equal(t, 0.0, fs.AvgBand1)
		assert.Equal(t, 0.0, fs.IntensityMean)
	})

	t.Run("very short", func(t *testing.T) {
		fs, err := ext.Extract(testSignal(t, tone(200, 0.5, 0.01)))
		require.NoError(t, err)
		assert.Equal(t, 0.0, fs.MeanPitch)
		assert.Equal(t, 0.0, fs.AvgDurPause)
	})
}
