package analyzers

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

const testSampleRate = 16000

func sineWave(freq, amplitude, duration float64, sampleRate int) []float64 {
	n := int(duration * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func addNoise(samples []float64, level float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v + level*rng.NormFloat64()
	}
	return out
}

func newTestSignal(t *testing.T, samples []float64) *audio.Signal {
	t.Helper()
	sig, err := audio.NewSignal(samples, testSampleRate)
	require.NoError(t, err)
	return sig
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
