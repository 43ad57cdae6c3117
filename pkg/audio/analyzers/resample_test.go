package analyzers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResample_Downsample(t *testing.T) {
	in := sineWave(440, 0.5, 1.0, testSampleRate)

	out, err := Resample(in, testSampleRate, 6000)
	require.NoError(t, err)
	require.Len(t, out, 6000)

	// skip the edges, where the kernel runs off the signal
	for i := 200; i < len(out)-200; i += 37 {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(i)/6000)
		assert.InDelta(t, want, out[i], 0.02, "sample %d", i)
	}
}

func TestResample_RemovesContentAboveNyquist(t *testing.T) {
	in := sineWave(5000, 0.5, 1.0, testSampleRate)

	out, err := Resample(in, testSampleRate, 6000)
	require.NoError(t, err)

	peak := 0.0
	for _, v := range out[200 : len(out)-200] {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.Less(t, peak, 0.05)
}

func TestResample_SameRateCopies(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := Resample(in, 8000, 8000)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out[0] = 9
	assert.Equal(t, 1.0, in[0])
}

func TestResample_InvalidRates(t *testing.T) {
	_, err := Resample([]float64{1}, 0, 8000)
	assert.Error(t, err)
}
