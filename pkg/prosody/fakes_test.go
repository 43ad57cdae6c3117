package prosody

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
)

type fakePitch struct {
	frequencies []float64
	err         error
}

func (f *fakePitch) TrackPitch(_ *audio.Signal, p analyzers.PitchParams) (*analyzers.PitchTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analyzers.PitchTrack{TimeStep: p.TimeStep, Frequencies: f.frequencies}, nil
}

type fakeIntensity struct {
	values []float64
	err    error
}

func (f *fakeIntensity) TrackIntensity(_ *audio.Signal, _ analyzers.IntensityParams) (*analyzers.IntensityTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analyzers.IntensityTrack{Values: f.values}, nil
}

type fakeFormant struct {
	track *analyzers.FormantTrack
	err   error
}

func (f *fakeFormant) TrackFormants(_ *audio.Signal, _ analyzers.FormantParams) (*analyzers.FormantTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.track == nil {
		return &analyzers.FormantTrack{TimeStep: 0.02}, nil
	}
	return f.track, nil
}

type fakeSegmenter struct {
	intervals []analyzers.Interval
	err       error
}

func (f *fakeSegmenter) DetectSilences(_ *audio.Signal, _ analyzers.SilenceParams) (*analyzers.IntervalTier, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analyzers.IntervalTier{Intervals: f.intervals}, nil
}

// fakeTranscoder writes a fixed signal as WAV to the output path.
type fakeTranscoder struct {
	signal  *audio.Signal
	err     error
	outputs []string
}

func (f *fakeTranscoder) Transcode(_ context.Context, _ string, out string) error {
	f.outputs = append(f.outputs, out)
	if f.err != nil {
		return f.err
	}
	return audio.WriteWAV(out, f.signal)
}

var errFake = errors.New("fake failure")

const testRate = 16000

func tone(freq, amplitude, duration float64) []float64 {
	n := int(duration * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func noisyTone(freq, amplitude, noise, duration float64) []float64 {
	rng := rand.New(rand.NewPCG(11, 12))
	out := tone(freq, amplitude, duration)
	for i := range out {
		out[i] += noise * rng.NormFloat64()
	}
	return out
}

func testSignal(t *testing.T, samples []float64) *audio.Signal {
	t.Helper()
	sig, err := audio.NewSignal(samples, testRate)
	require.NoError(t, err)
	return sig
}

func newFakeExtractor(t *testing.T, collab Collaborators) *Extractor {
	t.Helper()
	ext, err := NewExtractor(collab, DefaultExtractorConfig(), logging.NewNop())
	require.NoError(t, err)
	return ext
}

func newTestPipeline(t *testing.T, tr *fakeTranscoder, collab Collaborators) *Pipeline {
	t.Helper()
	pre := NewPreprocessor(tr, PreprocessOptions{TempDir: t.TempDir()}, logging.NewNop())
	p, err := NewPipeline(pre, newFakeExtractor(t, collab), DefaultModel(PauseWeightingDisabled), logging.NewNop())
	require.NoError(t, err)
	return p
}
